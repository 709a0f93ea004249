// Package analytics contiene los casos de uso de reportes sobre el inventario y el Dashboard.
package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const dashboardRecentMovements = 10 // movimientos recientes en el widget del dashboard

// DashboardUseCase genera el resumen operativo del inventario.
//
// Fuente de datos: repositorios de productos y movimientos (consultas read-only).
type DashboardUseCase struct {
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(productRepo repository.ProductRepository, movementRepo repository.MovementRepository) *DashboardUseCase {
	return &DashboardUseCase{productRepo: productRepo, movementRepo: movementRepo}
}

// GetDashboard construye el DashboardDTO.
//
// Dos consultas en paralelo:
//  1. productos activos → TotalProducts, TotalStock, LowStockItems
//  2. últimos movimientos → RecentMovements
func (uc *DashboardUseCase) GetDashboard(ctx context.Context) (*dto.DashboardDTO, error) {
	type productsResult struct {
		list []*entity.Product
		err  error
	}
	type movementsResult struct {
		list []*entity.Movement
		err  error
	}

	productsCh := make(chan productsResult, 1)
	movementsCh := make(chan movementsResult, 1)

	go func() {
		list, _, err := uc.productRepo.List(ctx, repository.ProductFilter{ActiveOnly: true}, 0, 0)
		productsCh <- productsResult{list, err}
	}()
	go func() {
		list, err := uc.movementRepo.List(ctx, repository.MovementFilter{}, dashboardRecentMovements)
		movementsCh <- movementsResult{list, err}
	}()

	products := <-productsCh
	movements := <-movementsCh

	if products.err != nil {
		return nil, fmt.Errorf("dashboard: productos: %w", products.err)
	}
	if movements.err != nil {
		return nil, fmt.Errorf("dashboard: movimientos: %w", movements.err)
	}

	totalStock := decimal.Zero
	lowStock := make([]dto.LowStockItemDTO, 0)
	for _, p := range products.list {
		totalStock = totalStock.Add(p.TotalQuantity)
		if p.IsLowStock() {
			lowStock = append(lowStock, dto.LowStockItemDTO{
				ProductID:     p.ID,
				SKU:           p.SKU,
				Name:          p.Name,
				TotalQuantity: p.TotalQuantity,
				ReorderLevel:  p.ReorderLevel,
			})
		}
	}
	// Los más urgentes primero: menor existencia relativa al nivel de reorden.
	sort.SliceStable(lowStock, func(i, j int) bool {
		gi := lowStock[i].ReorderLevel.Sub(lowStock[i].TotalQuantity)
		gj := lowStock[j].ReorderLevel.Sub(lowStock[j].TotalQuantity)
		return gi.GreaterThan(gj)
	})

	return &dto.DashboardDTO{
		TotalProducts:   len(products.list),
		TotalStock:      totalStock,
		LowStockItems:   lowStock,
		RecentMovements: dto.ToMovementResponses(movements.list),
	}, nil
}
