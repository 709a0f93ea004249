package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementLineRequest línea de un movimiento tal como llega por HTTP.
// Los campos de ubicación requeridos dependen del tipo de movimiento.
type MovementLineRequest struct {
	ProductID      string           `json:"product_id" validate:"required"`
	Quantity       *decimal.Decimal `json:"quantity" validate:"required"`
	FromLocationID string           `json:"from_location_id,omitempty"`
	ToLocationID   string           `json:"to_location_id,omitempty"`
}

// RegisterMovementRequest body para POST /api/inventory/{receipts,deliveries,transfers,adjustments}.
type RegisterMovementRequest struct {
	Lines       []MovementLineRequest `json:"lines" validate:"required,min=1,dive"`
	ReferenceID string                `json:"reference_id,omitempty" validate:"max=100"`
	Note        string                `json:"note,omitempty" validate:"max=1000"`
}

// MovementResponse entrada del ledger.
type MovementResponse struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	ProductID      string          `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	ToLocationID   string          `json:"to_location_id,omitempty"`
	ActorID        string          `json:"actor_id"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	Note           string          `json:"note,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MovementListResponse lista de movimientos (del más reciente al más antiguo).
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Limit int                `json:"limit"`
}

// LocationStockDTO cantidad de un producto en una ubicación.
type LocationStockDTO struct {
	LocationID string          `json:"location_id"`
	Code       string          `json:"code,omitempty"`
	Name       string          `json:"name,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// AggregateStockResponse stock agregado de un producto.
type AggregateStockResponse struct {
	ProductID     string             `json:"product_id"`
	SKU           string             `json:"sku"`
	UOM           string             `json:"uom"`
	TotalQuantity decimal.Decimal    `json:"total_quantity"`
	Version       int64              `json:"version"`
	PerLocation   []LocationStockDTO `json:"per_location"`
}

// ToMovementResponse convierte una entrada del ledger a su DTO.
func ToMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		Type:           string(m.Type),
		ProductID:      m.ProductID,
		Quantity:       m.Quantity,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		ActorID:        m.ActorID,
		ReferenceID:    m.ReferenceID,
		Note:           m.Note,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
	}
}

// ToMovementResponses convierte una lista de movimientos.
func ToMovementResponses(list []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out
}
