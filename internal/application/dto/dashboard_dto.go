package dto

import "github.com/shopspring/decimal"

// LowStockItemDTO producto activo con total en o por debajo de su nivel de reorden.
type LowStockItemDTO struct {
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	ReorderLevel  decimal.Decimal `json:"reorder_level"`
}

// DashboardDTO resumen operativo del inventario.
type DashboardDTO struct {
	TotalProducts   int                `json:"total_products"`
	TotalStock      decimal.Decimal    `json:"total_stock"`
	LowStockItems   []LowStockItemDTO  `json:"low_stock_items"`
	RecentMovements []MovementResponse `json:"recent_movements"`
}

// LocationQuantityDTO cantidad de un producto en una ubicación.
type LocationQuantityDTO struct {
	LocationID   string          `json:"location_id"`
	LocationCode string          `json:"location_code"`
	LocationName string          `json:"location_name"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// ProductQuantityDTO cantidad de un producto dentro de una ubicación.
type ProductQuantityDTO struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ProductStockStateDTO stock de un producto desglosado por ubicación.
type ProductStockStateDTO struct {
	ProductID     string                `json:"product_id"`
	SKU           string                `json:"sku"`
	Name          string                `json:"name"`
	IsActive      bool                  `json:"is_active"`
	TotalQuantity decimal.Decimal       `json:"total_quantity"`
	Locations     []LocationQuantityDTO `json:"locations"`
}

// LocationStockStateDTO stock de una ubicación desglosado por producto.
type LocationStockStateDTO struct {
	LocationID    string               `json:"location_id"`
	LocationCode  string               `json:"location_code"`
	LocationName  string               `json:"location_name"`
	TotalQuantity decimal.Decimal      `json:"total_quantity"`
	Products      []ProductQuantityDTO `json:"products"`
}

// StockStateDTO volcado completo del stock por producto y por ubicación.
type StockStateDTO struct {
	PerProduct  []ProductStockStateDTO  `json:"per_product"`
	PerLocation []LocationStockStateDTO `json:"per_location"`
}
