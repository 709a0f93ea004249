package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func ptr(v string) *decimal.Decimal {
	q := decimal.RequireFromString(v)
	return &q
}

func TestParseLine_Variantes(t *testing.T) {
	raw := inventory.RawLine{ProductID: "P", Quantity: ptr("5"), FromLocationID: "L1", ToLocationID: "L2"}

	line, err := inventory.ParseLine(entity.MovementTypeReceipt, 0, raw)
	require.NoError(t, err)
	assert.Equal(t, inventory.ReceiptLine{ProductID: "P", Quantity: d("5"), ToLocationID: "L2"}, line)

	line, err = inventory.ParseLine(entity.MovementTypeDelivery, 0, raw)
	require.NoError(t, err)
	assert.Equal(t, inventory.DeliveryLine{ProductID: "P", Quantity: d("5"), FromLocationID: "L1"}, line)

	line, err = inventory.ParseLine(entity.MovementTypeTransfer, 0, raw)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeTransfer, line.Type())

	raw.Quantity = ptr("-2")
	line, err = inventory.ParseLine(entity.MovementTypeAdjustment, 0, raw)
	require.NoError(t, err)
	adj, ok := line.(inventory.AdjustmentLine)
	require.True(t, ok)
	assert.True(t, adj.Delta.Equal(d("-2")))
	assert.Equal(t, "L2", adj.LocationID)
}

func TestParseLine_CamposFaltantes(t *testing.T) {
	_, err := inventory.ParseLine(entity.MovementTypeReceipt, 2, inventory.RawLine{ProductID: "P", ToLocationID: "L1"})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, 2, vErr.Line)
	assert.Equal(t, "quantity", vErr.Field)

	_, err = inventory.ParseLine(entity.MovementTypeDelivery, 0, inventory.RawLine{ProductID: "P", Quantity: ptr("1"), ToLocationID: "L1"})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "from_location_id", vErr.Field)

	_, err = inventory.ParseLine(entity.MovementTypeTransfer, 0, inventory.RawLine{Quantity: ptr("1"), FromLocationID: "L1", ToLocationID: "L2"})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "product_id", vErr.Field)

	_, err = inventory.ParseLine("gift", 0, inventory.RawLine{ProductID: "P", Quantity: ptr("1")})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, -1, vErr.Line)
}

func TestParseLines_Vacio(t *testing.T) {
	_, err := inventory.ParseLines(entity.MovementTypeReceipt, nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	lines, err := inventory.ParseLines(entity.MovementTypeReceipt, []inventory.RawLine{
		{ProductID: "P", Quantity: ptr("1"), ToLocationID: "L1"},
		{ProductID: "Q", Quantity: ptr("2"), ToLocationID: "L1"},
	})
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}
