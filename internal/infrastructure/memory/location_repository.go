package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// LocationRepository implementación en memoria de repository.LocationRepository.
type LocationRepository struct {
	binding
}

var _ repository.LocationRepository = (*LocationRepository)(nil)

func cloneLocation(l *entity.Location) *entity.Location {
	if l == nil {
		return nil
	}
	cp := *l
	return &cp
}

// checkWarehouse emula la llave foránea locations.warehouse_id.
func checkWarehouse(st *state, warehouseID string) error {
	if warehouseID == "" {
		return nil
	}
	if _, ok := st.warehouses[warehouseID]; !ok {
		return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	return nil
}

func (r *LocationRepository) Create(ctx context.Context, l *entity.Location) error {
	return r.write(ctx, func(st *state) error {
		if err := checkWarehouse(st, l.WarehouseID); err != nil {
			return err
		}
		if _, ok := st.locations[l.ID]; ok {
			return fmt.Errorf("%w: ubicación %s", domain.ErrDuplicate, l.ID)
		}
		if _, ok := st.codeIndex[l.Code]; ok {
			return fmt.Errorf("%w: código %s", domain.ErrDuplicate, l.Code)
		}
		st.locations[l.ID] = cloneLocation(l)
		st.codeIndex[l.Code] = l.ID
		return nil
	})
}

func (r *LocationRepository) FindByID(_ context.Context, id string) (*entity.Location, error) {
	return cloneLocation(r.view().locations[id]), nil
}

func (r *LocationRepository) FindByCode(_ context.Context, code string) (*entity.Location, error) {
	st := r.view()
	id, ok := st.codeIndex[code]
	if !ok {
		return nil, nil
	}
	return cloneLocation(st.locations[id]), nil
}

// Update modifica nombre, descripción y bodega; el código es inmutable.
func (r *LocationRepository) Update(ctx context.Context, l *entity.Location) error {
	return r.write(ctx, func(st *state) error {
		stored, ok := st.locations[l.ID]
		if !ok {
			return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, l.ID)
		}
		if err := checkWarehouse(st, l.WarehouseID); err != nil {
			return err
		}
		next := cloneLocation(stored)
		next.Name = l.Name
		next.Description = l.Description
		next.WarehouseID = l.WarehouseID
		next.UpdatedAt = l.UpdatedAt
		st.locations[l.ID] = next
		return nil
	})
}

func (r *LocationRepository) List(_ context.Context, limit, offset int) ([]*entity.Location, error) {
	st := r.view()
	all := make([]*entity.Location, 0, len(st.locations))
	for _, l := range st.locations {
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })

	if offset > len(all) {
		offset = len(all)
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*entity.Location, 0, end-offset)
	for _, l := range all[offset:end] {
		out = append(out, cloneLocation(l))
	}
	return out, nil
}

func (r *LocationRepository) ListByWarehouse(_ context.Context, warehouseID string) ([]*entity.Location, error) {
	st := r.view()
	out := make([]*entity.Location, 0)
	for _, l := range st.locations {
		if l.WarehouseID == warehouseID {
			out = append(out, cloneLocation(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	return r.write(ctx, func(st *state) error {
		stored, ok := st.locations[id]
		if !ok {
			return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
		}
		for _, p := range st.products {
			if _, ok := p.LocationQuantities[id]; ok {
				return fmt.Errorf("%w: la ubicación %s tiene stock", domain.ErrConflict, stored.Code)
			}
		}
		for _, m := range st.movements {
			if m.TouchesLocation(id) {
				return fmt.Errorf("%w: la ubicación %s tiene movimientos", domain.ErrConflict, stored.Code)
			}
		}
		delete(st.locations, id)
		delete(st.codeIndex, stored.Code)
		return nil
	})
}

func cloneWarehouse(w *entity.Warehouse) *entity.Warehouse {
	if w == nil {
		return nil
	}
	cp := *w
	return &cp
}

func (r *LocationRepository) CreateWarehouse(ctx context.Context, w *entity.Warehouse) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.warehouses[w.ID]; ok {
			return fmt.Errorf("%w: bodega %s", domain.ErrDuplicate, w.ID)
		}
		if _, ok := st.whCodes[w.Code]; ok {
			return fmt.Errorf("%w: código de bodega %s", domain.ErrDuplicate, w.Code)
		}
		st.warehouses[w.ID] = cloneWarehouse(w)
		st.whCodes[w.Code] = w.ID
		return nil
	})
}

func (r *LocationRepository) FindWarehouseByID(_ context.Context, id string) (*entity.Warehouse, error) {
	return cloneWarehouse(r.view().warehouses[id]), nil
}

func (r *LocationRepository) FindWarehouseByCode(_ context.Context, code string) (*entity.Warehouse, error) {
	st := r.view()
	id, ok := st.whCodes[code]
	if !ok {
		return nil, nil
	}
	return cloneWarehouse(st.warehouses[id]), nil
}

func (r *LocationRepository) UpdateWarehouse(ctx context.Context, w *entity.Warehouse) error {
	return r.write(ctx, func(st *state) error {
		stored, ok := st.warehouses[w.ID]
		if !ok {
			return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, w.ID)
		}
		next := cloneWarehouse(stored)
		next.Name = w.Name
		next.Address = w.Address
		next.IsActive = w.IsActive
		next.UpdatedAt = w.UpdatedAt
		st.warehouses[w.ID] = next
		return nil
	})
}

func (r *LocationRepository) ListWarehouses(_ context.Context, activeOnly bool) ([]*entity.Warehouse, error) {
	st := r.view()
	out := make([]*entity.Warehouse, 0, len(st.warehouses))
	for _, w := range st.warehouses {
		if activeOnly && !w.IsActive {
			continue
		}
		out = append(out, cloneWarehouse(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
