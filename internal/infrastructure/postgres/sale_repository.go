package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository (pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, bar_id, shift_id, product_id, quantity, unit_price, total_price, server_id, bartender_id,
	status, movement_id, collected_amount, payment_method, collected_by, collected_at, confirmed_by, confirmed_at,
	disputed_by, disputed_at, dispute_reason, reversed_by, reversed_at, reversal_reason, reversal_move_id,
	dedup_id, created_at, updated_at`

func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		        $19, $20, $21, $22, $23, $24, $25, $26, $27)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.BarID, s.ShiftID, s.ProductID, s.Quantity, s.UnitPrice, s.TotalPrice, s.ServerID, s.BartenderID,
		string(s.Status), s.MovementID, s.CollectedAmount, s.PaymentMethod, s.CollectedBy, s.CollectedAt,
		s.ConfirmedBy, s.ConfirmedAt, s.DisputedBy, s.DisputedAt, s.DisputeReason, s.ReversedBy, s.ReversedAt,
		s.ReversalReason, s.ReversalMoveID, s.DedupID, s.CreatedAt, s.UpdatedAt,
	)
	return mapError("insert sale", err)
}

func (r *SaleRepo) GetByID(ctx context.Context, barID, id string) (*entity.Sale, error) {
	return r.getOne(ctx, "get sale", `SELECT `+saleColumns+` FROM sales WHERE bar_id = $1 AND id = $2`, barID, id)
}

// GetForUpdate bloquea la fila (SELECT … FOR UPDATE) hasta el fin de la transacción.
func (r *SaleRepo) GetForUpdate(ctx context.Context, barID, id string) (*entity.Sale, error) {
	return r.getOne(ctx, "get sale for update", `SELECT `+saleColumns+` FROM sales WHERE bar_id = $1 AND id = $2 FOR UPDATE`, barID, id)
}

func (r *SaleRepo) GetByDedup(ctx context.Context, barID, dedupID string) (*entity.Sale, error) {
	return r.getOne(ctx, "get sale by dedup", `SELECT `+saleColumns+` FROM sales WHERE bar_id = $1 AND dedup_id = $2`, barID, dedupID)
}

func (r *SaleRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return s, nil
}

// UpdateStatus compare-and-set sobre status: 0 filas = ErrStaleWrite.
func (r *SaleRepo) UpdateStatus(ctx context.Context, s *entity.Sale, expected entity.SaleStatus) error {
	query := `
		UPDATE sales SET status = $3, collected_amount = $4, payment_method = $5, collected_by = $6, collected_at = $7,
			confirmed_by = $8, confirmed_at = $9, disputed_by = $10, disputed_at = $11, dispute_reason = $12,
			reversed_by = $13, reversed_at = $14, reversal_reason = $15, reversal_move_id = $16, updated_at = $17
		WHERE bar_id = $1 AND id = $2 AND status = $18`
	tag, err := r.q.Exec(ctx, query,
		s.BarID, s.ID, string(s.Status), s.CollectedAmount, s.PaymentMethod, s.CollectedBy, s.CollectedAt,
		s.ConfirmedBy, s.ConfirmedAt, s.DisputedBy, s.DisputedAt, s.DisputeReason,
		s.ReversedBy, s.ReversedAt, s.ReversalReason, s.ReversalMoveID, s.UpdatedAt, string(expected),
	)
	if err != nil {
		return mapError("update sale", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrStaleWrite
	}
	return nil
}

// List en orden de creación.
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	w := &where{}
	w.add("bar_id = ?", f.BarID)
	if f.ShiftID != "" {
		w.add("shift_id = ?", f.ShiftID)
	}
	if f.ServerID != "" {
		w.add("server_id = ?", f.ServerID)
	}
	if len(f.Statuses) > 0 {
		w.add("status = ANY(?)", statusStrings(f.Statuses))
	}
	query := `SELECT ` + saleColumns + ` FROM sales` + w.String() + ` ORDER BY created_at, id`
	query += w.page(f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError("list sales", err)
	}
	defer rows.Close()
	var out []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, mapError("scan sale", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list sales", err)
	}
	return out, nil
}

func (r *SaleRepo) CountByShift(ctx context.Context, barID, shiftID string, statuses []entity.SaleStatus) (int, error) {
	w := &where{}
	w.add("bar_id = ?", barID)
	w.add("shift_id = ?", shiftID)
	if len(statuses) > 0 {
		w.add("status = ANY(?)", statusStrings(statuses))
	}
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM sales`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, mapError("count sales", err)
	}
	return n, nil
}

func statusStrings(statuses []entity.SaleStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var (
		s      entity.Sale
		status string
	)
	err := row.Scan(
		&s.ID, &s.BarID, &s.ShiftID, &s.ProductID, &s.Quantity, &s.UnitPrice, &s.TotalPrice, &s.ServerID, &s.BartenderID,
		&status, &s.MovementID, &s.CollectedAmount, &s.PaymentMethod, &s.CollectedBy, &s.CollectedAt,
		&s.ConfirmedBy, &s.ConfirmedAt, &s.DisputedBy, &s.DisputedAt, &s.DisputeReason, &s.ReversedBy, &s.ReversedAt,
		&s.ReversalReason, &s.ReversalMoveID, &s.DedupID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = entity.SaleStatus(status)
	return &s, nil
}
