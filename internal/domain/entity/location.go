package entity

import "time"

// Location representa una ubicación física (bodega, estante, zona) donde se almacena inventario.
// Code es único y se guarda normalizado en mayúsculas. WarehouseID es opcional ("" = sin bodega).
type Location struct {
	ID          string
	Code        string
	Name        string
	Description string
	WarehouseID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
