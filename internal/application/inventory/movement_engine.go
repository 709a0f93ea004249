package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	stock "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/jhoicas/inventario-ledger/pkg/metrics"
)

// MovementEngine registra movimientos de inventario de forma transaccional y expone las consultas
// sobre el ledger. Todas las líneas de una solicitud se confirman juntas o ninguna.
type MovementEngine struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	movementRepo repository.MovementRepository
	log          *logger.Logger
	metrics      *metrics.MovementMetrics
	now          func() time.Time
}

// NewMovementEngine construye el motor. Los repositorios sin transacción se usan solo para lecturas.
func NewMovementEngine(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	movementRepo repository.MovementRepository,
	log *logger.Logger,
	m *metrics.MovementMetrics,
) *MovementEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &MovementEngine{
		txRunner:     txRunner,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		movementRepo: movementRepo,
		log:          log,
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ProcessInput solicitud de movimiento: un tipo, una o más líneas de ese tipo y el actor.
type ProcessInput struct {
	Type        entity.MovementType
	Lines       []Line
	ActorID     string
	ReferenceID string
	Note        string
}

// ProcessMovement valida la solicitud, aplica los deltas sobre los registros de stock y agrega las
// entradas del ledger y de auditoría en una sola transacción. Devuelve los movimientos creados en el
// orden de las líneas. Ante cualquier error no queda nada persistido.
func (e *MovementEngine) ProcessMovement(ctx context.Context, in ProcessInput) ([]entity.Movement, error) {
	start := time.Now()
	created, err := e.process(ctx, in)
	outcome := outcomeOf(err)
	e.metrics.ObserveRequest(string(in.Type), outcome, time.Since(start))

	if err != nil {
		ev := e.log.Warn()
		if outcome == metrics.OutcomeStorage {
			ev = e.log.Error()
		}
		ev.Err(err).
			Str("movement_type", string(in.Type)).
			Str("actor_id", in.ActorID).
			Int("lines", len(in.Lines)).
			Str("outcome", outcome).
			Msg("movimiento rechazado")
		return nil, err
	}

	e.metrics.AddLines(string(in.Type), len(created))
	e.log.Info().
		Str("movement_type", string(in.Type)).
		Str("actor_id", in.ActorID).
		Str("reference_id", in.ReferenceID).
		Int("lines", len(created)).
		Dur("elapsed", time.Since(start)).
		Msg("movimiento registrado")
	return created, nil
}

func (e *MovementEngine) process(ctx context.Context, in ProcessInput) ([]entity.Movement, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := e.now()
	var created []entity.Movement

	err := e.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		locationRepo repository.LocationRepository,
		movementRepo repository.MovementRepository,
		auditRepo repository.AuditRepository,
	) error {
		created = created[:0]

		// Bloquea los productos en orden de ID para que dos solicitudes con productos en común
		// no se bloqueen mutuamente.
		productIDs := distinctProductIDs(in.Lines)
		staged := make(map[string]*entity.Product, len(productIDs))
		loadedVersion := make(map[string]int64, len(productIDs))
		for _, id := range productIDs {
			p, err := productRepo.FindForUpdate(ctx, id)
			if err != nil {
				return domain.NewStorageError("cargar producto", err)
			}
			if p == nil {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
			}
			if !p.IsActive {
				return fmt.Errorf("%w: %s", domain.ErrProductInactive, id)
			}
			staged[id] = p
			loadedVersion[id] = p.Version
		}

		knownLocations := make(map[string]struct{})
		for i, line := range in.Lines {
			for _, locID := range line.locationIDs() {
				if _, ok := knownLocations[locID]; ok {
					continue
				}
				loc, err := locationRepo.FindByID(ctx, locID)
				if err != nil {
					return domain.NewStorageError("cargar ubicación", err)
				}
				if loc == nil {
					return fmt.Errorf("%w: %s (línea %d)", domain.ErrLocationNotFound, locID, i)
				}
				knownLocations[locID] = struct{}{}
			}

			pid := line.productID()
			next, err := stock.ApplyDeltas(staged[pid], line.deltas()...)
			if err != nil {
				return err
			}
			next.UpdatedAt = now
			staged[pid] = next

			mov := line.movement()
			mov.ID = uuid.New().String()
			mov.ActorID = in.ActorID
			mov.ReferenceID = in.ReferenceID
			mov.Note = in.Note
			mov.Status = entity.MovementStatusCompleted
			mov.CreatedAt = now
			if err := movementRepo.Create(ctx, &mov); err != nil {
				return domain.NewStorageError("registrar movimiento", err)
			}
			if err := auditRepo.Append(ctx, movementAudit(&mov, now)); err != nil {
				return domain.NewStorageError("registrar auditoría", err)
			}
			created = append(created, mov)
		}

		for _, id := range productIDs {
			if staged[id].Version == loadedVersion[id] {
				continue
			}
			if err := productRepo.Save(ctx, staged[id], loadedVersion[id]); err != nil {
				return domain.NewStorageError("guardar producto", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewStorageError("confirmar movimiento", err)
	}
	return created, nil
}

func validateInput(in ProcessInput) error {
	if !in.Type.Valid() {
		return domain.NewValidationError(-1, "type", "tipo de movimiento desconocido: "+string(in.Type))
	}
	if in.ActorID == "" {
		return domain.NewValidationError(-1, "actor_id", "es requerido")
	}
	if len(in.Lines) == 0 {
		return domain.NewValidationError(-1, "lines", "debe incluir al menos una línea")
	}
	for i, line := range in.Lines {
		if line == nil {
			return domain.NewValidationError(i, "line", "vacía")
		}
		if line.Type() != in.Type {
			return domain.NewValidationError(i, "type", fmt.Sprintf("línea %s en solicitud %s", line.Type(), in.Type))
		}
		if err := line.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func distinctProductIDs(lines []Line) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		id := l.productID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type movementAuditPayload struct {
	Type           entity.MovementType `json:"type"`
	ProductID      string              `json:"product_id"`
	Quantity       string              `json:"quantity"`
	FromLocationID string              `json:"from_location_id,omitempty"`
	ToLocationID   string              `json:"to_location_id,omitempty"`
	ReferenceID    string              `json:"reference_id,omitempty"`
}

func movementAudit(m *entity.Movement, now time.Time) *entity.AuditEntry {
	payload, _ := json.Marshal(movementAuditPayload{
		Type:           m.Type,
		ProductID:      m.ProductID,
		Quantity:       m.Quantity.String(),
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		ReferenceID:    m.ReferenceID,
	})
	return &entity.AuditEntry{
		ID:         uuid.New().String(),
		ActorID:    m.ActorID,
		Action:     entity.AuditActionMovement,
		EntityType: entity.AuditEntityMovement,
		EntityID:   m.ID,
		Payload:    payload,
		CreatedAt:  now,
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrValidation):
		return metrics.OutcomeValidation
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrLocationNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrProductInactive):
		return metrics.OutcomeInsufficientStock
	case errors.Is(err, domain.ErrConcurrentModification):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeStorage
	}
}

// ListMovements devuelve los movimientos que cumplen el filtro, del más reciente al más antiguo.
// limit se ajusta al rango [1, 100] (20 por defecto).
func (e *MovementEngine) ListMovements(ctx context.Context, filter repository.MovementFilter, limit int) ([]*entity.Movement, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.NewValidationError(-1, "type", "tipo de movimiento desconocido: "+string(filter.Type))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError(-1, "status", "estado desconocido: "+string(filter.Status))
	}
	list, err := e.movementRepo.List(ctx, filter, dto.NormalizeLimit(limit))
	if err != nil {
		return nil, domain.NewStorageError("listar movimientos", err)
	}
	return list, nil
}

// GetMovement obtiene una entrada del ledger por ID.
func (e *MovementEngine) GetMovement(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := e.movementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.NewStorageError("obtener movimiento", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
	}
	return m, nil
}

// GetAggregateStock devuelve el total y el detalle por ubicación de un producto, ordenado por
// código de ubicación. Incluye productos inactivos.
func (e *MovementEngine) GetAggregateStock(ctx context.Context, productID string) (*dto.AggregateStockResponse, error) {
	p, err := e.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, domain.NewStorageError("obtener producto", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}

	perLocation := make([]dto.LocationStockDTO, 0, len(p.LocationQuantities))
	for _, s := range p.Stocks() {
		item := dto.LocationStockDTO{LocationID: s.LocationID, Quantity: s.Quantity}
		loc, err := e.locationRepo.FindByID(ctx, s.LocationID)
		if err != nil {
			return nil, domain.NewStorageError("obtener ubicación", err)
		}
		if loc != nil {
			item.Code = loc.Code
			item.Name = loc.Name
		}
		perLocation = append(perLocation, item)
	}
	sort.SliceStable(perLocation, func(i, j int) bool {
		if perLocation[i].Code != perLocation[j].Code {
			return perLocation[i].Code < perLocation[j].Code
		}
		return perLocation[i].LocationID < perLocation[j].LocationID
	})

	return &dto.AggregateStockResponse{
		ProductID:     p.ID,
		SKU:           p.SKU,
		UOM:           p.UOM,
		TotalQuantity: p.TotalQuantity,
		Version:       p.Version,
		PerLocation:   perLocation,
	}, nil
}
