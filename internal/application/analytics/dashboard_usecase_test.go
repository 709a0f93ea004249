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

func TestDashboardUseCase_GetDashboard(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	products := []*entity.Product{
		{ID: "p1", SKU: "A", Name: "A", IsActive: true, ReorderLevel: decimal.NewFromInt(5),
			LocationQuantities: map[string]decimal.Decimal{"L1": decimal.NewFromInt(3)}, TotalQuantity: decimal.NewFromInt(3)},
		{ID: "p2", SKU: "B", Name: "B", IsActive: true, ReorderLevel: decimal.NewFromInt(5),
			LocationQuantities: map[string]decimal.Decimal{"L1": decimal.NewFromInt(50)}, TotalQuantity: decimal.NewFromInt(50)},
		{ID: "p3", SKU: "C", Name: "C", IsActive: false, ReorderLevel: decimal.NewFromInt(100),
			LocationQuantities: map[string]decimal.Decimal{"L1": decimal.NewFromInt(7)}, TotalQuantity: decimal.NewFromInt(7)},
	}
	for _, p := range products {
		require.NoError(t, store.Products().Create(ctx, p))
	}
	for i := 0; i < 12; i++ {
		require.NoError(t, store.Movements().Create(ctx, &entity.Movement{
			ID: string(rune('a' + i)), Type: entity.MovementTypeReceipt, ProductID: "p1", Status: entity.MovementStatusCompleted,
		}))
	}

	uc := analytics.NewDashboardUseCase(store.Products(), store.Movements())
	out, err := uc.GetDashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, out.TotalProducts, "solo productos activos")
	assert.True(t, out.TotalStock.Equal(decimal.NewFromInt(53)))
	require.Len(t, out.LowStockItems, 1)
	assert.Equal(t, "p1", out.LowStockItems[0].ProductID)
	assert.Len(t, out.RecentMovements, 10)
	assert.Equal(t, "l", out.RecentMovements[0].ID, "el más reciente primero")
}
