package analytics_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

func TestStockStateUseCase_CruzaProductosYUbicaciones(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	for _, l := range []*entity.Location{
		{ID: "L2", Code: "WH-B", Name: "B"},
		{ID: "L1", Code: "WH-A", Name: "A"},
		{ID: "L3", Code: "WH-C", Name: "Vacía"},
	} {
		require.NoError(t, store.Locations().Create(ctx, l))
	}
	for _, p := range []*entity.Product{
		{ID: "p2", SKU: "B", Name: "Perno", IsActive: false,
			LocationQuantities: map[string]decimal.Decimal{"L1": decimal.NewFromInt(4)}, TotalQuantity: decimal.NewFromInt(4)},
		{ID: "p1", SKU: "A", Name: "Tornillo", IsActive: true,
			LocationQuantities: map[string]decimal.Decimal{"L1": decimal.NewFromInt(3), "L2": decimal.NewFromInt(7)}, TotalQuantity: decimal.NewFromInt(10)},
	} {
		require.NoError(t, store.Products().Create(ctx, p))
	}

	out, err := analytics.NewStockStateUseCase(store.Products(), store.Locations()).GetStockState(ctx)
	require.NoError(t, err)

	require.Len(t, out.PerProduct, 2)
	a := out.PerProduct[0]
	assert.Equal(t, "A", a.SKU)
	assert.True(t, a.TotalQuantity.Equal(decimal.NewFromInt(10)))
	require.Len(t, a.Locations, 2)
	assert.Equal(t, "WH-A", a.Locations[0].LocationCode)
	assert.True(t, a.Locations[1].Quantity.Equal(decimal.NewFromInt(7)))
	assert.False(t, out.PerProduct[1].IsActive, "incluye inactivos")

	require.Len(t, out.PerLocation, 3)
	whA := out.PerLocation[0]
	assert.Equal(t, "WH-A", whA.LocationCode)
	assert.True(t, whA.TotalQuantity.Equal(decimal.NewFromInt(7)))
	require.Len(t, whA.Products, 2)
	assert.Equal(t, "A", whA.Products[0].SKU)
	assert.Equal(t, "B", whA.Products[1].SKU)

	empty := out.PerLocation[2]
	assert.Equal(t, "WH-C", empty.LocationCode)
	assert.True(t, empty.TotalQuantity.IsZero())
	assert.Empty(t, empty.Products)
}
