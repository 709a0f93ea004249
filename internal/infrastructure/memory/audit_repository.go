package memory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// AuditRepository bitácora en memoria.
type AuditRepository struct {
	binding
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) Append(ctx context.Context, e *entity.AuditEntry) error {
	cp := *e
	cp.Payload = append([]byte(nil), e.Payload...)
	return r.write(ctx, func(st *state) error {
		st.audit = append(st.audit, &cp)
		return nil
	})
}

// ListByEntity devuelve las entradas de la entidad, de la más reciente a la más antigua.
func (r *AuditRepository) ListByEntity(_ context.Context, entityType, entityID string, limit int) ([]*entity.AuditEntry, error) {
	st := r.view()
	out := make([]*entity.AuditEntry, 0)
	for i := len(st.audit) - 1; i >= 0; i-- {
		e := st.audit[i]
		if e.EntityType != entityType || (entityID != "" && e.EntityID != entityID) {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
