package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, category, uom, reorder_level, is_active, total_quantity, version, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
// Las cantidades por ubicación viven en product_stock, una fila por ubicación con cantidad > 0.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto con sus cantidades iniciales (normalmente vacías).
// Sin categoría se guarda como finished_goods.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	category := p.Category
	if category == "" {
		category = entity.ProductCategoryFinishedGoods
	}
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, category, p.UOM, p.ReorderLevel, p.IsActive,
		p.SumQuantities(), p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, p.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return r.writeStock(ctx, p)
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.UOM, &p.ReorderLevel, &p.IsActive,
		&p.TotalQuantity, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.LocationQuantities = make(map[string]decimal.Decimal)
	return &p, nil
}

func (r *ProductRepo) findOne(ctx context.Context, query string, arg any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadStock(ctx, []*entity.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID obtiene un producto con sus cantidades por ubicación.
func (r *ProductRepo) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// FindForUpdate obtiene el producto y bloquea su fila hasta el fin de la transacción (SELECT FOR UPDATE).
// Las filas de product_stock solo se escriben bajo este bloqueo.
func (r *ProductRepo) FindForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	p, err := r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}
	return p, nil
}

// FindBySKU obtiene un producto por SKU.
func (r *ProductRepo) FindBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	p, err := r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
	if err != nil {
		return nil, fmt.Errorf("get product by sku: %w", err)
	}
	return p, nil
}

// UpdateDetails actualiza los campos del catálogo. No toca cantidades ni versión.
func (r *ProductRepo) UpdateDetails(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET name = $2, category = $3, uom = $4, reorder_level = $5, is_active = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, p.ID, p.Name, p.Category, p.UOM, p.ReorderLevel, p.IsActive, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, p.ID)
	}
	return nil
}

// Save persiste cantidades, total y versión solo si la versión almacenada es expectedVersion.
func (r *ProductRepo) Save(ctx context.Context, p *entity.Product, expectedVersion int64) error {
	query := `
		UPDATE products SET total_quantity = $2, version = $3, updated_at = $4
		WHERE id = $1 AND version = $5`
	tag, err := r.q.Exec(ctx, query, p.ID, p.SumQuantities(), p.Version, p.UpdatedAt, expectedVersion)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: producto %s", domain.ErrInsufficientStock, p.ID)
		}
		return fmt.Errorf("save product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var current int64
		err := r.q.QueryRow(ctx, `SELECT version FROM products WHERE id = $1`, p.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, p.ID)
		}
		if err != nil {
			return fmt.Errorf("save product: %w", err)
		}
		return fmt.Errorf("%w: producto %s (versión %d, esperada %d)",
			domain.ErrConcurrentModification, p.ID, current, expectedVersion)
	}
	return r.writeStock(ctx, p)
}

// writeStock deja product_stock igual a p.LocationQuantities en un solo batch.
func (r *ProductRepo) writeStock(ctx context.Context, p *entity.Product) error {
	stocks := p.Stocks()
	locationIDs := make([]string, 0, len(stocks))
	batch := &pgx.Batch{}
	for _, s := range stocks {
		if !s.Quantity.IsPositive() {
			continue
		}
		locationIDs = append(locationIDs, s.LocationID)
		batch.Queue(`
			INSERT INTO product_stock (product_id, location_id, quantity) VALUES ($1, $2, $3)
			ON CONFLICT (product_id, location_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
			p.ID, s.LocationID, s.Quantity)
	}
	batch.Queue(`DELETE FROM product_stock WHERE product_id = $1 AND NOT (location_id = ANY($2))`, p.ID, locationIDs)

	br := r.q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			switch {
			case isForeignKeyViolation(err):
				return fmt.Errorf("%w: %v", domain.ErrLocationNotFound, err)
			case isCheckViolation(err):
				return fmt.Errorf("%w: producto %s", domain.ErrInsufficientStock, p.ID)
			}
			return fmt.Errorf("write product stock: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("write product stock: %w", err)
	}
	return nil
}

// loadStock completa LocationQuantities de los productos con una sola consulta.
func (r *ProductRepo) loadStock(ctx context.Context, products []*entity.Product) error {
	if len(products) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Product, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	rows, err := r.q.Query(ctx,
		`SELECT product_id, location_id, quantity FROM product_stock WHERE product_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("load product stock: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID, locationID string
		var qty decimal.Decimal
		if err := rows.Scan(&productID, &locationID, &qty); err != nil {
			return fmt.Errorf("scan product stock: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.LocationQuantities[locationID] = qty
		}
	}
	return rows.Err()
}

// List lista productos ordenados por SKU con búsqueda opcional por nombre o SKU.
func (r *ProductRepo) List(ctx context.Context, filter repository.ProductFilter, limit, offset int) ([]*entity.Product, int, error) {
	var (
		conds []string
		args  []any
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY sku`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	if err := r.loadStock(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
