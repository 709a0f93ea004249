package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementRepository define el puerto del ledger de movimientos (solo inserción).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	FindByID(ctx context.Context, id string) (*entity.Movement, error)
	// List devuelve los movimientos que cumplen todos los filtros, del más reciente al más antiguo.
	List(ctx context.Context, filter MovementFilter, limit int) ([]*entity.Movement, error)
}

// MovementFilter filtros opcionales (vacío = sin filtro). LocationID coincide con origen o destino.
type MovementFilter struct {
	Type       entity.MovementType
	ProductID  string
	LocationID string
	Status     entity.MovementStatus
}

// Matches indica si el movimiento cumple el filtro.
func (f MovementFilter) Matches(m *entity.Movement) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.LocationID != "" && !m.TouchesLocation(f.LocationID) {
		return false
	}
	return true
}
