package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	stock "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

// Line es una línea de movimiento. Las variantes son ReceiptLine, DeliveryLine, TransferLine y
// AdjustmentLine; cada una lleva exactamente los campos que su tipo necesita.
type Line interface {
	Type() entity.MovementType
	productID() string
	locationIDs() []string
	validate(index int) error
	deltas() []stock.Delta
	movement() entity.Movement
}

// ReceiptLine entrada de Quantity (> 0) a ToLocationID.
type ReceiptLine struct {
	ProductID    string
	Quantity     decimal.Decimal
	ToLocationID string
}

// DeliveryLine salida de Quantity (> 0) desde FromLocationID.
type DeliveryLine struct {
	ProductID      string
	Quantity       decimal.Decimal
	FromLocationID string
}

// TransferLine traslado de Quantity (> 0) de FromLocationID a ToLocationID.
type TransferLine struct {
	ProductID      string
	Quantity       decimal.Decimal
	FromLocationID string
	ToLocationID   string
}

// AdjustmentLine ajuste firmado (distinto de cero) en LocationID.
type AdjustmentLine struct {
	ProductID  string
	Delta      decimal.Decimal
	LocationID string
}

func (ReceiptLine) Type() entity.MovementType    { return entity.MovementTypeReceipt }
func (DeliveryLine) Type() entity.MovementType   { return entity.MovementTypeDelivery }
func (TransferLine) Type() entity.MovementType   { return entity.MovementTypeTransfer }
func (AdjustmentLine) Type() entity.MovementType { return entity.MovementTypeAdjustment }

func (l ReceiptLine) productID() string    { return l.ProductID }
func (l DeliveryLine) productID() string   { return l.ProductID }
func (l TransferLine) productID() string   { return l.ProductID }
func (l AdjustmentLine) productID() string { return l.ProductID }

func (l ReceiptLine) locationIDs() []string    { return []string{l.ToLocationID} }
func (l DeliveryLine) locationIDs() []string   { return []string{l.FromLocationID} }
func (l TransferLine) locationIDs() []string   { return []string{l.FromLocationID, l.ToLocationID} }
func (l AdjustmentLine) locationIDs() []string { return []string{l.LocationID} }

func (l ReceiptLine) validate(i int) error {
	if err := requireProduct(i, l.ProductID); err != nil {
		return err
	}
	if l.ToLocationID == "" {
		return domain.NewValidationError(i, "to_location_id", "es requerido para receipt")
	}
	return requirePositive(i, l.Quantity)
}

func (l DeliveryLine) validate(i int) error {
	if err := requireProduct(i, l.ProductID); err != nil {
		return err
	}
	if l.FromLocationID == "" {
		return domain.NewValidationError(i, "from_location_id", "es requerido para delivery")
	}
	return requirePositive(i, l.Quantity)
}

func (l TransferLine) validate(i int) error {
	if err := requireProduct(i, l.ProductID); err != nil {
		return err
	}
	if l.FromLocationID == "" {
		return domain.NewValidationError(i, "from_location_id", "es requerido para transfer")
	}
	if l.ToLocationID == "" {
		return domain.NewValidationError(i, "to_location_id", "es requerido para transfer")
	}
	if l.FromLocationID == l.ToLocationID {
		return domain.NewValidationError(i, "to_location_id", "debe ser distinto de from_location_id")
	}
	return requirePositive(i, l.Quantity)
}

func (l AdjustmentLine) validate(i int) error {
	if err := requireProduct(i, l.ProductID); err != nil {
		return err
	}
	if l.LocationID == "" {
		return domain.NewValidationError(i, "to_location_id", "es requerido para adjustment")
	}
	if l.Delta.IsZero() {
		return domain.NewValidationError(i, "quantity", "no puede ser cero")
	}
	return nil
}

func (l ReceiptLine) deltas() []stock.Delta {
	return []stock.Delta{{LocationID: l.ToLocationID, Amount: l.Quantity}}
}

func (l DeliveryLine) deltas() []stock.Delta {
	return []stock.Delta{{LocationID: l.FromLocationID, Amount: l.Quantity.Neg()}}
}

// Origen primero: cada ubicación se valida contra no-negatividad por separado.
func (l TransferLine) deltas() []stock.Delta {
	return []stock.Delta{
		{LocationID: l.FromLocationID, Amount: l.Quantity.Neg()},
		{LocationID: l.ToLocationID, Amount: l.Quantity},
	}
}

func (l AdjustmentLine) deltas() []stock.Delta {
	return []stock.Delta{{LocationID: l.LocationID, Amount: l.Delta}}
}

func (l ReceiptLine) movement() entity.Movement {
	return entity.Movement{Type: l.Type(), ProductID: l.ProductID, Quantity: l.Quantity, ToLocationID: l.ToLocationID}
}

func (l DeliveryLine) movement() entity.Movement {
	return entity.Movement{Type: l.Type(), ProductID: l.ProductID, Quantity: l.Quantity, FromLocationID: l.FromLocationID}
}

func (l TransferLine) movement() entity.Movement {
	return entity.Movement{
		Type: l.Type(), ProductID: l.ProductID, Quantity: l.Quantity,
		FromLocationID: l.FromLocationID, ToLocationID: l.ToLocationID,
	}
}

func (l AdjustmentLine) movement() entity.Movement {
	return entity.Movement{Type: l.Type(), ProductID: l.ProductID, Quantity: l.Delta, ToLocationID: l.LocationID}
}

func requireProduct(i int, productID string) error {
	if productID == "" {
		return domain.NewValidationError(i, "product_id", "es requerido")
	}
	return nil
}

func requirePositive(i int, q decimal.Decimal) error {
	if !q.IsPositive() {
		return domain.NewValidationError(i, "quantity", "debe ser mayor que cero")
	}
	return nil
}

// RawLine línea sin tipar tal como llega de un transporte. Quantity nil significa ausente.
type RawLine struct {
	ProductID      string
	Quantity       *decimal.Decimal
	FromLocationID string
	ToLocationID   string
}

// ParseLine convierte una RawLine en la variante correspondiente a t, verificando que estén los
// campos que ese tipo requiere. Los campos que el tipo no usa se descartan.
func ParseLine(t entity.MovementType, index int, raw RawLine) (Line, error) {
	if raw.Quantity == nil {
		return nil, domain.NewValidationError(index, "quantity", "es requerido y debe ser numérico")
	}
	var line Line
	switch t {
	case entity.MovementTypeReceipt:
		line = ReceiptLine{ProductID: raw.ProductID, Quantity: *raw.Quantity, ToLocationID: raw.ToLocationID}
	case entity.MovementTypeDelivery:
		line = DeliveryLine{ProductID: raw.ProductID, Quantity: *raw.Quantity, FromLocationID: raw.FromLocationID}
	case entity.MovementTypeTransfer:
		line = TransferLine{
			ProductID: raw.ProductID, Quantity: *raw.Quantity,
			FromLocationID: raw.FromLocationID, ToLocationID: raw.ToLocationID,
		}
	case entity.MovementTypeAdjustment:
		line = AdjustmentLine{ProductID: raw.ProductID, Delta: *raw.Quantity, LocationID: raw.ToLocationID}
	default:
		return nil, domain.NewValidationError(-1, "type", "tipo de movimiento desconocido: "+string(t))
	}
	if err := line.validate(index); err != nil {
		return nil, err
	}
	return line, nil
}

// ParseLines convierte todas las líneas; falla en la primera inválida.
func ParseLines(t entity.MovementType, raws []RawLine) ([]Line, error) {
	if len(raws) == 0 {
		return nil, domain.NewValidationError(-1, "lines", "debe incluir al menos una línea")
	}
	lines := make([]Line, 0, len(raws))
	for i, raw := range raws {
		line, err := ParseLine(t, i, raw)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}
