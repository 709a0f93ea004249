package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto (nace sin stock).
type CreateProductRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Category     string          `json:"category" validate:"omitempty,oneof=raw_material finished_goods packaging service"`
	UOM          string          `json:"uom" validate:"required,max=20"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}

// UpdateProductRequest entrada para actualizar un producto (sin cantidades ni versión).
type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Category     *string          `json:"category" validate:"omitempty,oneof=raw_material finished_goods packaging service"`
	UOM          *string          `json:"uom" validate:"omitempty,min=1,max=20"`
	ReorderLevel *decimal.Decimal `json:"reorder_level"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UOM           string          `json:"uom"`
	ReorderLevel  decimal.Decimal `json:"reorder_level"`
	IsActive      bool            `json:"is_active"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ProductImportIssue fila del CSV que no se importó completa.
type ProductImportIssue struct {
	Row     int    `json:"row"` // número de línea en el archivo (base 1, encabezado incluido)
	SKU     string `json:"sku,omitempty"`
	Message string `json:"message"`
}

// ProductImportResult resumen de una importación de productos.
type ProductImportResult struct {
	Created         int                  `json:"created"`
	SkippedExisting int                  `json:"skipped_existing"`
	SkippedInvalid  int                  `json:"skipped_invalid"`
	Received        int                  `json:"received"` // productos nuevos con recepción de stock inicial
	Issues          []ProductImportIssue `json:"issues,omitempty"`
}
