package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// LocationRepository define el puerto de persistencia del directorio de ubicaciones: las
// ubicaciones y las bodegas que las agrupan. Find* devuelven (nil, nil) si no existe.
type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	FindByID(ctx context.Context, id string) (*entity.Location, error)
	FindByCode(ctx context.Context, code string) (*entity.Location, error)
	// Update actualiza nombre, descripción y bodega. El código es inmutable.
	Update(ctx context.Context, location *entity.Location) error
	List(ctx context.Context, limit, offset int) ([]*entity.Location, error)
	// ListByWarehouse lista las ubicaciones de una bodega ordenadas por código.
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Location, error)
	// Delete devuelve domain.ErrConflict si la ubicación está referenciada por stock o movimientos.
	Delete(ctx context.Context, id string) error

	CreateWarehouse(ctx context.Context, warehouse *entity.Warehouse) error
	FindWarehouseByID(ctx context.Context, id string) (*entity.Warehouse, error)
	FindWarehouseByCode(ctx context.Context, code string) (*entity.Warehouse, error)
	// UpdateWarehouse actualiza nombre, dirección y estado activo.
	UpdateWarehouse(ctx context.Context, warehouse *entity.Warehouse) error
	// ListWarehouses lista bodegas ordenadas por código.
	ListWarehouses(ctx context.Context, activeOnly bool) ([]*entity.Warehouse, error)
}
