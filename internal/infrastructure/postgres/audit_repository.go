package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácora de auditoría sobre PostgreSQL (solo inserción).
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Append agrega una entrada a la bitácora.
func (r *AuditRepo) Append(ctx context.Context, e *entity.AuditEntry) error {
	payload := e.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	query := `
		INSERT INTO audit_entries (id, actor_id, action, entity_type, entity_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID, string(payload), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByEntity lista las entradas de una entidad, de la más reciente a la más antigua.
// entityID vacío devuelve todas las del tipo.
func (r *AuditRepo) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, payload, created_at
		FROM audit_entries
		WHERE entity_type = $1 AND ($2 = '' OR entity_id = $2)
		ORDER BY seq DESC`
	args := []any{entityType, entityID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.AuditEntry, 0)
	for rows.Next() {
		var e entity.AuditEntry
		var payload []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Payload = payload
		list = append(list, &e)
	}
	return list, rows.Err()
}
