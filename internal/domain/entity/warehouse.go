package entity

import "time"

// Warehouse representa una bodega o sucursal que agrupa ubicaciones. Code es único y se guarda
// en mayúsculas. El borrado es lógico (IsActive = false); una bodega inactiva no admite
// ubicaciones nuevas.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
