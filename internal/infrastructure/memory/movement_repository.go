package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// MovementRepository ledger en memoria. Solo inserción.
type MovementRepository struct {
	binding
}

var _ repository.MovementRepository = (*MovementRepository)(nil)

func cloneMovement(m *entity.Movement) *entity.Movement {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}

func (r *MovementRepository) Create(ctx context.Context, m *entity.Movement) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.movByID[m.ID]; ok {
			return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, m.ID)
		}
		cp := cloneMovement(m)
		st.movements = append(st.movements, cp)
		st.movByID[m.ID] = cp
		return nil
	})
}

func (r *MovementRepository) FindByID(_ context.Context, id string) (*entity.Movement, error) {
	return cloneMovement(r.view().movByID[id]), nil
}

// List recorre el ledger desde la última inserción; el orden estable por created_at desc conserva
// la secuencia de inserción descendente entre movimientos del mismo instante.
func (r *MovementRepository) List(_ context.Context, filter repository.MovementFilter, limit int) ([]*entity.Movement, error) {
	st := r.view()
	matched := make([]*entity.Movement, 0)
	for i := len(st.movements) - 1; i >= 0; i-- {
		if filter.Matches(st.movements[i]) {
			matched = append(matched, st.movements[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]*entity.Movement, 0, len(matched))
	for _, m := range matched {
		out = append(out, cloneMovement(m))
	}
	return out, nil
}
