package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ProductRepository implementación en memoria de repository.ProductRepository.
type ProductRepository struct {
	binding
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, p.ID)
		}
		if _, ok := st.skuIndex[p.SKU]; ok {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, p.SKU)
		}
		st.products[p.ID] = p.Clone()
		st.skuIndex[p.SKU] = p.ID
		return nil
	})
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (*entity.Product, error) {
	return r.view().products[id].Clone(), nil
}

// FindForUpdate en memoria equivale a FindByID: el mutex de escritura del store ya aísla la transacción.
func (r *ProductRepository) FindForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *ProductRepository) FindBySKU(_ context.Context, sku string) (*entity.Product, error) {
	st := r.view()
	id, ok := st.skuIndex[sku]
	if !ok {
		return nil, nil
	}
	return st.products[id].Clone(), nil
}

func (r *ProductRepository) UpdateDetails(ctx context.Context, p *entity.Product) error {
	return r.write(ctx, func(st *state) error {
		stored, ok := st.products[p.ID]
		if !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, p.ID)
		}
		next := stored.Clone()
		next.Name = p.Name
		next.Category = p.Category
		next.UOM = p.UOM
		next.ReorderLevel = p.ReorderLevel
		next.IsActive = p.IsActive
		next.UpdatedAt = p.UpdatedAt
		st.products[p.ID] = next
		return nil
	})
}

func (r *ProductRepository) Save(ctx context.Context, p *entity.Product, expectedVersion int64) error {
	return r.write(ctx, func(st *state) error {
		stored, ok := st.products[p.ID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, p.ID)
		}
		if stored.Version != expectedVersion {
			return fmt.Errorf("%w: producto %s (versión %d, esperada %d)",
				domain.ErrConcurrentModification, p.ID, stored.Version, expectedVersion)
		}
		for loc, q := range p.LocationQuantities {
			if q.IsNegative() {
				return &domain.InsufficientStockError{ProductID: p.ID, LocationID: loc, Available: q}
			}
		}
		next := stored.Clone()
		next.LocationQuantities = p.Clone().LocationQuantities
		next.TotalQuantity = next.SumQuantities()
		next.Version = p.Version
		next.UpdatedAt = p.UpdatedAt
		st.products[p.ID] = next
		return nil
	})
}

func (r *ProductRepository) List(_ context.Context, filter repository.ProductFilter, limit, offset int) ([]*entity.Product, int, error) {
	st := r.view()
	q := strings.ToLower(strings.TrimSpace(filter.Query))

	matched := make([]*entity.Product, 0, len(st.products))
	for _, p := range st.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.SKU), q) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].SKU < matched[j].SKU })

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	out := make([]*entity.Product, 0, end-offset)
	for _, p := range matched[offset:end] {
		out = append(out, p.Clone())
	}
	return out, total, nil
}
