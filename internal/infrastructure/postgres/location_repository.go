package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

const (
	locationColumns  = `id, code, name, description, warehouse_id, created_at, updated_at`
	warehouseColumns = `id, code, name, address, is_active, created_at, updated_at`
)

// LocationRepo implementación del puerto LocationRepository sobre PostgreSQL (ubicaciones y bodegas).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de persistencia para ubicaciones. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// Create persiste una nueva ubicación.
func (r *LocationRepo) Create(ctx context.Context, l *entity.Location) error {
	query := `INSERT INTO locations (` + locationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, l.ID, l.Code, l.Name, l.Description, nullable(l.WarehouseID), l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código %s", domain.ErrDuplicate, l.Code)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, l.WarehouseID)
		}
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func scanLocation(row pgx.Row) (*entity.Location, error) {
	var l entity.Location
	var warehouseID *string
	if err := row.Scan(&l.ID, &l.Code, &l.Name, &l.Description, &warehouseID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if warehouseID != nil {
		l.WarehouseID = *warehouseID
	}
	return &l, nil
}

func (r *LocationRepo) findOne(ctx context.Context, where string, arg any) (*entity.Location, error) {
	l, err := scanLocation(r.q.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

// FindByID obtiene una ubicación por ID.
func (r *LocationRepo) FindByID(ctx context.Context, id string) (*entity.Location, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByCode obtiene una ubicación por código normalizado.
func (r *LocationRepo) FindByCode(ctx context.Context, code string) (*entity.Location, error) {
	return r.findOne(ctx, "code = $1", code)
}

// Update actualiza nombre, descripción y bodega.
func (r *LocationRepo) Update(ctx context.Context, l *entity.Location) error {
	query := `UPDATE locations SET name = $2, description = $3, warehouse_id = $4, updated_at = $5 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, l.ID, l.Name, l.Description, nullable(l.WarehouseID), l.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, l.WarehouseID)
		}
		return fmt.Errorf("update location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, l.ID)
	}
	return nil
}

func (r *LocationRepo) queryLocations(ctx context.Context, query string, args ...any) ([]*entity.Location, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// List lista ubicaciones ordenadas por código.
func (r *LocationRepo) List(ctx context.Context, limit, offset int) ([]*entity.Location, error) {
	if limit <= 0 {
		limit = 1000
	}
	return r.queryLocations(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
}

// ListByWarehouse lista las ubicaciones de una bodega.
func (r *LocationRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Location, error) {
	return r.queryLocations(ctx, `SELECT `+locationColumns+` FROM locations WHERE warehouse_id = $1 ORDER BY code`, warehouseID)
}

// Delete elimina una ubicación. Las llaves foráneas de product_stock y movements la protegen
// mientras tenga stock o historial.
func (r *LocationRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: la ubicación %s tiene stock o movimientos", domain.ErrConflict, id)
		}
		return fmt.Errorf("delete location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	return nil
}

// CreateWarehouse persiste una nueva bodega.
func (r *LocationRepo) CreateWarehouse(ctx context.Context, w *entity.Warehouse) error {
	query := `INSERT INTO warehouses (` + warehouseColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, w.ID, w.Code, w.Name, w.Address, w.IsActive, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código de bodega %s", domain.ErrDuplicate, w.Code)
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var w entity.Warehouse
	if err := row.Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *LocationRepo) findWarehouse(ctx context.Context, where string, arg any) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return w, nil
}

// FindWarehouseByID obtiene una bodega por ID.
func (r *LocationRepo) FindWarehouseByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.findWarehouse(ctx, "id = $1", id)
}

// FindWarehouseByCode obtiene una bodega por código.
func (r *LocationRepo) FindWarehouseByCode(ctx context.Context, code string) (*entity.Warehouse, error) {
	return r.findWarehouse(ctx, "code = $1", code)
}

// UpdateWarehouse actualiza una bodega existente.
func (r *LocationRepo) UpdateWarehouse(ctx context.Context, w *entity.Warehouse) error {
	query := `UPDATE warehouses SET name = $2, address = $3, is_active = $4, updated_at = $5 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, w.ID, w.Name, w.Address, w.IsActive, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, w.ID)
	}
	return nil
}

// ListWarehouses lista bodegas por código.
func (r *LocationRepo) ListWarehouses(ctx context.Context, activeOnly bool) ([]*entity.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses`
	if activeOnly {
		query += ` WHERE is_active`
	}
	rows, err := r.q.Query(ctx, query+` ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}
