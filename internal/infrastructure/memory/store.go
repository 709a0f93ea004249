// Package memory implementa los repositorios del ledger en memoria, para desarrollo y tests.
//
// El estado confirmado es inmutable: cada transacción trabaja sobre una copia y la publica al
// confirmar. Las transacciones de escritura se serializan con un mutex del store; los lectores
// nunca ven escrituras sin confirmar.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

type state struct {
	products  map[string]*entity.Product
	skuIndex  map[string]string
	locations map[string]*entity.Location
	codeIndex map[string]string
	// bodegas y su índice por código
	warehouses map[string]*entity.Warehouse
	whCodes    map[string]string
	movements  []*entity.Movement // orden de inserción
	movByID    map[string]*entity.Movement
	audit      []*entity.AuditEntry
}

func newState() *state {
	return &state{
		products:   make(map[string]*entity.Product),
		skuIndex:   make(map[string]string),
		locations:  make(map[string]*entity.Location),
		codeIndex:  make(map[string]string),
		warehouses: make(map[string]*entity.Warehouse),
		whCodes:    make(map[string]string),
		movByID:    make(map[string]*entity.Movement),
	}
}

// clone copia los índices. Los valores apuntados nunca se mutan una vez publicados, así que
// basta con copiar los mapas; los slices se recortan para que un append no escriba sobre el
// arreglo compartido.
func (s *state) clone() *state {
	next := &state{
		products:   make(map[string]*entity.Product, len(s.products)),
		skuIndex:   make(map[string]string, len(s.skuIndex)),
		locations:  make(map[string]*entity.Location, len(s.locations)),
		codeIndex:  make(map[string]string, len(s.codeIndex)),
		warehouses: make(map[string]*entity.Warehouse, len(s.warehouses)),
		whCodes:    make(map[string]string, len(s.whCodes)),
		movements:  s.movements[:len(s.movements):len(s.movements)],
		movByID:    make(map[string]*entity.Movement, len(s.movByID)),
		audit:      s.audit[:len(s.audit):len(s.audit)],
	}
	for k, v := range s.products {
		next.products[k] = v
	}
	for k, v := range s.skuIndex {
		next.skuIndex[k] = v
	}
	for k, v := range s.locations {
		next.locations[k] = v
	}
	for k, v := range s.codeIndex {
		next.codeIndex[k] = v
	}
	for k, v := range s.warehouses {
		next.warehouses[k] = v
	}
	for k, v := range s.whCodes {
		next.whCodes[k] = v
	}
	for k, v := range s.movByID {
		next.movByID[k] = v
	}
	return next
}

// Store contenedor del estado en memoria.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{current: newState()}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// update ejecuta fn sobre una copia del estado y la publica si fn no falla.
func (s *Store) update(ctx context.Context, fn func(next *state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshot().clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return nil
}

// Run implementa inventory.TxRunner: las escrituras de fn se publican juntas al terminar sin error.
func (s *Store) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
) error) error {
	return s.update(ctx, func(next *state) error {
		return fn(
			&ProductRepository{binding{store: s, tx: next}},
			&LocationRepository{binding{store: s, tx: next}},
			&MovementRepository{binding{store: s, tx: next}},
			&AuditRepository{binding{store: s, tx: next}},
		)
	})
}

// Products devuelve el repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepository { return &ProductRepository{binding{store: s}} }

// Locations devuelve el repositorio de ubicaciones fuera de transacción.
func (s *Store) Locations() *LocationRepository { return &LocationRepository{binding{store: s}} }

// Movements devuelve el ledger de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepository { return &MovementRepository{binding{store: s}} }

// Audit devuelve la bitácora de auditoría fuera de transacción.
func (s *Store) Audit() *AuditRepository { return &AuditRepository{binding{store: s}} }

// binding decide si un repositorio lee/escribe sobre una transacción abierta o sobre el store.
type binding struct {
	store *Store
	tx    *state
}

func (b binding) view() *state {
	if b.tx != nil {
		return b.tx
	}
	return b.store.snapshot()
}

func (b binding) write(ctx context.Context, fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	return b.store.update(ctx, fn)
}
