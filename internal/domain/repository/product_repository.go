package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para el registro de stock de productos.
// Find* devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	// FindForUpdate lee el producto bloqueándolo hasta el fin de la transacción en curso.
	FindForUpdate(ctx context.Context, id string) (*entity.Product, error)
	FindBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// UpdateDetails actualiza solo los campos del catálogo (name, category, uom, reorder_level, is_active).
	UpdateDetails(ctx context.Context, product *entity.Product) error
	// Save persiste cantidades, total y versión condicionado a expectedVersion.
	// Si la versión almacenada difiere devuelve domain.ErrConcurrentModification.
	Save(ctx context.Context, product *entity.Product, expectedVersion int64) error
	// List devuelve la página pedida y el total que cumple el filtro. limit <= 0 significa sin límite.
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, int, error)
}

// ProductFilter filtros de listado del catálogo.
type ProductFilter struct {
	Query      string // búsqueda por nombre o SKU (sin distinguir mayúsculas)
	Category   string // exacta; vacío = todas
	ActiveOnly bool
}
