package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario.
type MovementType string

// Tipos de movimiento soportados por el ledger.
const (
	MovementTypeReceipt    MovementType = "receipt"    // entrada a una ubicación
	MovementTypeDelivery   MovementType = "delivery"   // salida desde una ubicación
	MovementTypeTransfer   MovementType = "transfer"   // traslado entre ubicaciones
	MovementTypeAdjustment MovementType = "adjustment" // ajuste con delta firmado
)

// Valid indica si el tipo es uno de los soportados.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeReceipt, MovementTypeDelivery, MovementTypeTransfer, MovementTypeAdjustment:
		return true
	}
	return false
}

// MovementStatus estado del movimiento. Hoy todo movimiento nace en MovementStatusCompleted;
// el resto de estados queda reservado para un flujo de aprobación.
type MovementStatus string

const (
	MovementStatusDraft     MovementStatus = "draft"
	MovementStatusWaiting   MovementStatus = "waiting"
	MovementStatusReady     MovementStatus = "ready"
	MovementStatusCompleted MovementStatus = "completed"
	MovementStatusCanceled  MovementStatus = "canceled"
)

// Valid indica si el estado es conocido.
func (s MovementStatus) Valid() bool {
	switch s {
	case MovementStatusDraft, MovementStatusWaiting, MovementStatusReady,
		MovementStatusCompleted, MovementStatusCanceled:
		return true
	}
	return false
}

// Terminal indica si el estado ya no admite transiciones.
func (s MovementStatus) Terminal() bool {
	return s == MovementStatusCompleted || s == MovementStatusCanceled
}

// Movement es una entrada inmutable del ledger (una por línea procesada).
// Quantity es firmada en ajustes y magnitud positiva en el resto.
type Movement struct {
	ID             string
	Type           MovementType
	ProductID      string
	Quantity       decimal.Decimal
	FromLocationID string // vacío si no aplica
	ToLocationID   string // vacío si no aplica
	ActorID        string
	ReferenceID    string
	Note           string
	Status         MovementStatus
	CreatedAt      time.Time
}

// TouchesLocation indica si el movimiento sale de o llega a la ubicación.
func (m *Movement) TouchesLocation(locationID string) bool {
	return m.FromLocationID == locationID || m.ToLocationID == locationID
}
