package entity

import "github.com/shopspring/decimal"

// LocationStock es la cantidad de un producto en una ubicación (vista por fila del mapa
// LocationQuantities de Product).
type LocationStock struct {
	LocationID string
	Quantity   decimal.Decimal
}
