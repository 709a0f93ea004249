package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Categorías de producto.
const (
	ProductCategoryRawMaterial   = "raw_material"
	ProductCategoryFinishedGoods = "finished_goods"
	ProductCategoryPackaging     = "packaging"
	ProductCategoryService       = "service"
)

// ProductCategories categorías válidas, en orden de presentación.
var ProductCategories = []string{
	ProductCategoryRawMaterial, ProductCategoryFinishedGoods, ProductCategoryPackaging, ProductCategoryService,
}

// IsValidProductCategory indica si c es una de ProductCategories.
func IsValidProductCategory(c string) bool {
	for _, v := range ProductCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Product es el registro de stock de un producto (multi-ubicación).
// LocationQuantities y TotalQuantity solo los modifica el motor de movimientos;
// el catálogo administra los campos descriptivos (SKU, Name, Category, UOM, ReorderLevel, IsActive).
type Product struct {
	ID                 string
	SKU                string // único, mayúsculas
	Name               string
	Category           string // una de ProductCategories
	UOM                string // unidad de medida: kg, pcs, box...
	ReorderLevel       decimal.Decimal
	IsActive           bool
	LocationQuantities map[string]decimal.Decimal // locationID -> cantidad (>= 0)
	TotalQuantity      decimal.Decimal            // siempre Σ LocationQuantities
	Version            int64                      // +1 por cada mutación de stock
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// QuantityAt devuelve la cantidad en la ubicación (cero si no hay entrada).
func (p *Product) QuantityAt(locationID string) decimal.Decimal {
	if p.LocationQuantities == nil {
		return decimal.Zero
	}
	return p.LocationQuantities[locationID]
}

// SumQuantities recalcula el total a partir de las cantidades por ubicación.
func (p *Product) SumQuantities() decimal.Decimal {
	total := decimal.Zero
	for _, q := range p.LocationQuantities {
		total = total.Add(q)
	}
	return total
}

// Clone devuelve una copia profunda (el mapa no se comparte).
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	cp.LocationQuantities = make(map[string]decimal.Decimal, len(p.LocationQuantities))
	for k, v := range p.LocationQuantities {
		cp.LocationQuantities[k] = v
	}
	return &cp
}

// Stocks devuelve las cantidades por ubicación ordenadas por locationID.
func (p *Product) Stocks() []LocationStock {
	out := make([]LocationStock, 0, len(p.LocationQuantities))
	for loc, q := range p.LocationQuantities {
		out = append(out, LocationStock{LocationID: loc, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out
}

// IsLowStock indica si el total está en o por debajo del nivel de reorden.
func (p *Product) IsLowStock() bool {
	return p.TotalQuantity.LessThanOrEqual(p.ReorderLevel)
}
