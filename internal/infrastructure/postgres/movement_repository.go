package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, type, product_id, quantity, from_location_id, to_location_id, actor_id, reference_id, note, status, created_at`

// MovementRepo ledger de movimientos sobre PostgreSQL. Solo inserción; la tabla rechaza UPDATE y DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create agrega una entrada al ledger.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `INSERT INTO movements (` + movementColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Type, m.ProductID, m.Quantity, nullable(m.FromLocationID), nullable(m.ToLocationID),
		m.ActorID, m.ReferenceID, m.Note, m.Status, m.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, m.ID)
		case isForeignKeyViolation(err):
			return fmt.Errorf("%w: %v", domain.ErrLocationNotFound, err)
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var from, to *string
	err := row.Scan(
		&m.ID, &m.Type, &m.ProductID, &m.Quantity, &from, &to,
		&m.ActorID, &m.ReferenceID, &m.Note, &m.Status, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if from != nil {
		m.FromLocationID = *from
	}
	if to != nil {
		m.ToLocationID = *to
	}
	return &m, nil
}

// FindByID obtiene un movimiento por ID.
func (r *MovementRepo) FindByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List filtra el ledger, del más reciente al más antiguo (created_at y luego secuencia de inserción).
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter, limit int) ([]*entity.Movement, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	if filter.Type != "" {
		add("type = ?", filter.Type)
	}
	if filter.ProductID != "" {
		add("product_id = ?", filter.ProductID)
	}
	if filter.Status != "" {
		add("status = ?", filter.Status)
	}
	if filter.LocationID != "" {
		add("(from_location_id = ? OR to_location_id = ?)", filter.LocationID)
	}

	query := `SELECT ` + movementColumns + ` FROM movements`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, seq DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
