package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/ledger"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro append-only de movimientos sobre PostgreSQL (pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, bar_id, product_id, type, quantity, direction, from_holder, to_holder,
	actor_id, device_id, shift_id, reason, dedup_id, occurred_at, created_at`

// Create inserta el movimiento. El dedup id es único por bar.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.BarID, m.ProductID, string(m.Type), m.Quantity, m.Direction, m.FromHolder, m.ToHolder,
		m.ActorID, m.DeviceID, m.ShiftID, m.Reason, m.DedupID, m.OccurredAt, m.CreatedAt,
	)
	return mapError("insert movement", err)
}

func (r *MovementRepo) GetByID(ctx context.Context, barID, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE bar_id = $1 AND id = $2`
	return r.getOne(ctx, "get movement", query, barID, id)
}

func (r *MovementRepo) GetByDedup(ctx context.Context, barID, dedupID string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE bar_id = $1 AND dedup_id = $2`
	return r.getOne(ctx, "get movement by dedup", query, barID, dedupID)
}

func (r *MovementRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return m, nil
}

// Balance agrega en SQL la misma fórmula que ledger.Balance.
func (r *MovementRepo) Balance(ctx context.Context, scope ledger.Scope) (int64, error) {
	var (
		total int64
		err   error
	)
	if scope.Holder == nil {
		err = r.q.QueryRow(ctx, `
			SELECT COALESCE(SUM(quantity * direction), 0)::bigint
			FROM movements WHERE bar_id = $1 AND product_id = $2`,
			scope.BarID, scope.ProductID,
		).Scan(&total)
	} else {
		err = r.q.QueryRow(ctx, `
			SELECT COALESCE(SUM(CASE WHEN to_holder = $3 THEN quantity ELSE 0 END)
			              - SUM(CASE WHEN from_holder = $3 THEN quantity ELSE 0 END), 0)::bigint
			FROM movements
			WHERE bar_id = $1 AND product_id = $2 AND (to_holder = $3 OR from_holder = $3)`,
			scope.BarID, scope.ProductID, *scope.Holder,
		).Scan(&total)
	}
	if err != nil {
		return 0, mapError("balance", err)
	}
	return total, nil
}

// ListByProduct orden cronológico de inserción.
func (r *MovementRepo) ListByProduct(ctx context.Context, barID, productID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements
		WHERE bar_id = $1 AND product_id = $2 ORDER BY created_at, id`
	return r.list(ctx, query, barID, productID)
}

// List más reciente primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	w := &where{}
	w.add("bar_id = ?", f.BarID)
	if f.ProductID != "" {
		w.add("product_id = ?", f.ProductID)
	}
	if f.HolderID != nil {
		w.add("(from_holder = ? OR to_holder = ?)", *f.HolderID)
	}
	if f.ShiftID != nil {
		w.add("shift_id = ?", *f.ShiftID)
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		w.add("type = ANY(?)", types)
	}
	if f.From != nil {
		w.add("occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("occurred_at <= ?", *f.To)
	}
	query := `SELECT ` + movementColumns + ` FROM movements` + w.String() + ` ORDER BY created_at DESC, id DESC`
	query += w.page(f.Limit, f.Offset)
	return r.list(ctx, query, w.args...)
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list movements", err)
	}
	defer rows.Close()
	var out []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, mapError("scan movement", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list movements", err)
	}
	return out, nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m  entity.Movement
		mt string
	)
	err := row.Scan(
		&m.ID, &m.BarID, &m.ProductID, &mt, &m.Quantity, &m.Direction, &m.FromHolder, &m.ToHolder,
		&m.ActorID, &m.DeviceID, &m.ShiftID, &m.Reason, &m.DedupID, &m.OccurredAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(mt)
	return &m, nil
}
