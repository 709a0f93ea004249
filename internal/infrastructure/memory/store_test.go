package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

func seed(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, s.Locations().Create(ctx, &entity.Location{ID: "L1", Code: "WH-A", Name: "A"}))
	require.NoError(t, s.Locations().Create(ctx, &entity.Location{ID: "L2", Code: "WH-B", Name: "B"}))
	require.NoError(t, s.Products().Create(ctx, &entity.Product{
		ID: "P", SKU: "SKU-P", Name: "Tornillo", IsActive: true, LocationQuantities: map[string]decimal.Decimal{},
	}))
	return s
}

func TestRun_RollbackDescartaEscrituras(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(p repository.ProductRepository, _ repository.LocationRepository, m repository.MovementRepository, a repository.AuditRepository) error {
		rec, err := p.FindForUpdate(ctx, "P")
		require.NoError(t, err)
		next := rec.Clone()
		next.LocationQuantities["L1"] = decimal.NewFromInt(5)
		next.TotalQuantity = next.SumQuantities()
		next.Version = 1
		require.NoError(t, p.Save(ctx, next, 0))
		require.NoError(t, m.Create(ctx, &entity.Movement{ID: "m1", Type: entity.MovementTypeReceipt, ProductID: "P"}))
		require.NoError(t, a.Append(ctx, &entity.AuditEntry{ID: "a1", EntityType: entity.AuditEntityMovement, EntityID: "m1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Products().FindByID(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Version)
	assert.True(t, p.TotalQuantity.IsZero())

	m, err := s.Movements().FindByID(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, m)

	audit, err := s.Audit().ListByEntity(ctx, entity.AuditEntityMovement, "m1", 0)
	require.NoError(t, err)
	assert.Empty(t, audit)
}

func TestRun_LectoresNoVenEscriturasPendientes(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := s.Run(ctx, func(_ repository.ProductRepository, _ repository.LocationRepository, m repository.MovementRepository, _ repository.AuditRepository) error {
		require.NoError(t, m.Create(ctx, &entity.Movement{ID: "m1", ProductID: "P"}))

		outside, err := s.Movements().FindByID(ctx, "m1")
		require.NoError(t, err)
		assert.Nil(t, outside)

		inside, err := m.FindByID(ctx, "m1")
		require.NoError(t, err)
		assert.NotNil(t, inside)
		return nil
	})
	require.NoError(t, err)

	committed, err := s.Movements().FindByID(ctx, "m1")
	require.NoError(t, err)
	assert.NotNil(t, committed)
}

func TestRun_ContextoCanceladoNoConfirma(t *testing.T) {
	s := seed(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.Run(ctx, func(_ repository.ProductRepository, _ repository.LocationRepository, m repository.MovementRepository, _ repository.AuditRepository) error {
		require.NoError(t, m.Create(ctx, &entity.Movement{ID: "m1", ProductID: "P"}))
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	m, err := s.Movements().FindByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestProductRepository_SaveVerificaVersion(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	repo := s.Products()

	p, err := repo.FindByID(ctx, "P")
	require.NoError(t, err)
	p.LocationQuantities["L1"] = decimal.NewFromInt(3)
	p.Version = 1
	require.NoError(t, repo.Save(ctx, p, 0))

	err = repo.Save(ctx, p, 0)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	stored, err := repo.FindByID(ctx, "P")
	require.NoError(t, err)
	assert.True(t, stored.TotalQuantity.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "Tornillo", stored.Name)
}

func TestProductRepository_CopiasIndependientes(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	p, err := s.Products().FindByID(ctx, "P")
	require.NoError(t, err)
	p.LocationQuantities["L1"] = decimal.NewFromInt(99)

	again, err := s.Products().FindByID(ctx, "P")
	require.NoError(t, err)
	assert.True(t, again.QuantityAt("L1").IsZero())
}

func TestProductRepository_SKUDuplicadoYListado(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	repo := s.Products()

	err := repo.Create(ctx, &entity.Product{ID: "Q", SKU: "SKU-P"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, repo.Create(ctx, &entity.Product{ID: "Q", SKU: "SKU-Q", Name: "Tuerca", IsActive: false}))

	all, total, err := repo.List(ctx, repository.ProductFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	active, total, err := repo.List(ctx, repository.ProductFilter{ActiveOnly: true}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "P", active[0].ID)

	found, _, err := repo.List(ctx, repository.ProductFilter{Query: "tuer"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Q", found[0].ID)

	page, total, err := repo.List(ctx, repository.ProductFilter{}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Q", page[0].ID)
}

func TestLocationRepository_DeleteReferenciada(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.Movements().Create(ctx, &entity.Movement{ID: "m1", ProductID: "P", ToLocationID: "L1"}))

	err := s.Locations().Delete(ctx, "L1")
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, s.Locations().Delete(ctx, "L2"))
	l, err := s.Locations().FindByCode(ctx, "WH-B")
	require.NoError(t, err)
	assert.Nil(t, l)

	err = s.Locations().Delete(ctx, "L2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMovementRepository_OrdenMasRecientePrimero(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Movements().Create(ctx, &entity.Movement{ID: "a", CreatedAt: base}))
	require.NoError(t, s.Movements().Create(ctx, &entity.Movement{ID: "b", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, s.Movements().Create(ctx, &entity.Movement{ID: "c", CreatedAt: base}))

	list, err := s.Movements().List(ctx, repository.MovementFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "c", list[1].ID, "mismo instante: la inserción posterior va primero")
	assert.Equal(t, "a", list[2].ID)
}

func TestLocationRepository_Bodegas(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	repo := s.Locations()

	require.NoError(t, repo.CreateWarehouse(ctx, &entity.Warehouse{ID: "W1", Code: "MAIN", Name: "Principal", IsActive: true}))
	err := repo.CreateWarehouse(ctx, &entity.Warehouse{ID: "W2", Code: "MAIN", Name: "Otra", IsActive: true})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	// Llave foránea emulada: la bodega debe existir.
	err = repo.Create(ctx, &entity.Location{ID: "L3", Code: "WH-C", Name: "C", WarehouseID: "W9"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	require.NoError(t, repo.Create(ctx, &entity.Location{ID: "L3", Code: "WH-C", Name: "C", WarehouseID: "W1"}))

	l1, err := repo.FindByID(ctx, "L1")
	require.NoError(t, err)
	l1.WarehouseID = "W1"
	require.NoError(t, repo.Update(ctx, l1))

	list, err := repo.ListByWarehouse(ctx, "W1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "WH-A", list[0].Code)
	assert.Equal(t, "WH-C", list[1].Code)

	w, err := repo.FindWarehouseByCode(ctx, "MAIN")
	require.NoError(t, err)
	w.IsActive = false
	require.NoError(t, repo.UpdateWarehouse(ctx, w))

	active, err := repo.ListWarehouses(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := repo.ListWarehouses(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	// La copia devuelta no comparte estado con el store.
	all[0].Name = "mutada"
	again, err := repo.FindWarehouseByID(ctx, "W1")
	require.NoError(t, err)
	assert.Equal(t, "Principal", again.Name)
}
