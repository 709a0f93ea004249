package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Delta cambio firmado de cantidad en una ubicación.
type Delta struct {
	LocationID string
	Amount     decimal.Decimal
}

// ApplyDelta aplica un único delta sobre una copia del registro (ver ApplyDeltas).
func ApplyDelta(record *entity.Product, locationID string, amount decimal.Decimal) (*entity.Product, error) {
	return ApplyDeltas(record, Delta{LocationID: locationID, Amount: amount})
}

// ApplyDeltas aplica los deltas en orden sobre una copia del registro, recalcula el total y
// avanza la versión una sola vez. Si alguna ubicación quedaría negativa devuelve
// *domain.InsufficientStockError y el registro original no se modifica.
// Las entradas que llegan exactamente a cero se eliminan del mapa.
func ApplyDeltas(record *entity.Product, deltas ...Delta) (*entity.Product, error) {
	next := record.Clone()
	for _, d := range deltas {
		current := next.QuantityAt(d.LocationID)
		updated := current.Add(d.Amount)
		if updated.IsNegative() {
			return nil, &domain.InsufficientStockError{
				ProductID:  record.ID,
				LocationID: d.LocationID,
				Requested:  d.Amount.Neg(),
				Available:  current,
			}
		}
		if updated.IsZero() {
			delete(next.LocationQuantities, d.LocationID)
			continue
		}
		next.LocationQuantities[d.LocationID] = updated
	}
	next.TotalQuantity = next.SumQuantities()
	next.Version = record.Version + 1
	return next, nil
}
