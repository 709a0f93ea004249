package entity

import (
	"encoding/json"
	"time"
)

// Acciones y entidades registradas en la bitácora de auditoría.
const (
	AuditActionMovement = "movement"
	AuditActionCreate   = "create"
	AuditActionUpdate   = "update"
	AuditActionDelete   = "delete"

	AuditEntityMovement  = "Movement"
	AuditEntityProduct   = "Product"
	AuditEntityLocation  = "Location"
	AuditEntityWarehouse = "Warehouse"
)

// AuditEntry evento de auditoría de solo escritura.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Payload    json.RawMessage
	CreatedAt  time.Time
}
