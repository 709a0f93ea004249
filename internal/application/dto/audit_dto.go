package dto

import (
	"encoding/json"
	"time"
)

// AuditEntryResponse entrada de la bitácora de auditoría.
type AuditEntryResponse struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}
