package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// AuditRepository puerto de la bitácora de auditoría (solo inserción).
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*entity.AuditEntry, error)
}
