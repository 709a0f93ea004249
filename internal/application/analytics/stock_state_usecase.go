package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// StockStateUseCase vuelca el stock completo cruzado por producto y por ubicación. Sirve para
// diagnóstico (solo admin): incluye productos inactivos y ubicaciones vacías.
type StockStateUseCase struct {
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
}

// NewStockStateUseCase construye el caso de uso.
func NewStockStateUseCase(productRepo repository.ProductRepository, locationRepo repository.LocationRepository) *StockStateUseCase {
	return &StockStateUseCase{productRepo: productRepo, locationRepo: locationRepo}
}

// GetStockState arma las dos vistas a partir de una lectura de productos y una de ubicaciones.
// Productos ordenados por SKU, ubicaciones por código.
func (uc *StockStateUseCase) GetStockState(ctx context.Context) (*dto.StockStateDTO, error) {
	products, _, err := uc.productRepo.List(ctx, repository.ProductFilter{}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("estado de stock: productos: %w", err)
	}
	locations, err := uc.locationRepo.List(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("estado de stock: ubicaciones: %w", err)
	}

	byLocation := make(map[string]*dto.LocationStockStateDTO, len(locations))
	perLocation := make([]*dto.LocationStockStateDTO, 0, len(locations))
	for _, l := range locations {
		row := &dto.LocationStockStateDTO{
			LocationID:    l.ID,
			LocationCode:  l.Code,
			LocationName:  l.Name,
			TotalQuantity: decimal.Zero,
			Products:      []dto.ProductQuantityDTO{},
		}
		byLocation[l.ID] = row
		perLocation = append(perLocation, row)
	}

	perProduct := make([]dto.ProductStockStateDTO, 0, len(products))
	for _, p := range products {
		row := dto.ProductStockStateDTO{
			ProductID:     p.ID,
			SKU:           p.SKU,
			Name:          p.Name,
			IsActive:      p.IsActive,
			TotalQuantity: p.TotalQuantity,
			Locations:     make([]dto.LocationQuantityDTO, 0, len(p.LocationQuantities)),
		}
		for _, s := range p.Stocks() {
			loc := byLocation[s.LocationID]
			if loc == nil {
				// Stock en una ubicación fuera de la página leída: se reporta solo con su ID.
				loc = &dto.LocationStockStateDTO{LocationID: s.LocationID, TotalQuantity: decimal.Zero, Products: []dto.ProductQuantityDTO{}}
				byLocation[s.LocationID] = loc
				perLocation = append(perLocation, loc)
			}
			row.Locations = append(row.Locations, dto.LocationQuantityDTO{
				LocationID:   s.LocationID,
				LocationCode: loc.LocationCode,
				LocationName: loc.LocationName,
				Quantity:     s.Quantity,
			})
			loc.TotalQuantity = loc.TotalQuantity.Add(s.Quantity)
			loc.Products = append(loc.Products, dto.ProductQuantityDTO{
				ProductID: p.ID,
				SKU:       p.SKU,
				Name:      p.Name,
				Quantity:  s.Quantity,
			})
		}
		sort.Slice(row.Locations, func(i, j int) bool { return row.Locations[i].LocationCode < row.Locations[j].LocationCode })
		perProduct = append(perProduct, row)
	}
	sort.Slice(perProduct, func(i, j int) bool { return perProduct[i].SKU < perProduct[j].SKU })

	out := &dto.StockStateDTO{PerProduct: perProduct, PerLocation: make([]dto.LocationStockStateDTO, 0, len(perLocation))}
	for _, l := range perLocation {
		sort.Slice(l.Products, func(i, j int) bool { return l.Products[i].SKU < l.Products[j].SKU })
		out.PerLocation = append(out.PerLocation, *l)
	}
	sort.Slice(out.PerLocation, func(i, j int) bool { return out.PerLocation[i].LocationCode < out.PerLocation[j].LocationCode })
	return out, nil
}
