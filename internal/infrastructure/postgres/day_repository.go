package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

var (
	_ repository.DayRepository             = (*DayRepo)(nil)
	_ repository.ShiftRepository           = (*ShiftRepo)(nil)
	_ repository.ShiftAssignmentRepository = (*ShiftAssignmentRepo)(nil)
)

// DayRepo jornadas (pool o tx).
type DayRepo struct {
	q Querier
}

// NewDayRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDayRepository(q Querier) *DayRepo {
	return &DayRepo{q: q}
}

// business_date viaja como texto YYYY-MM-DD.
const dayColumns = `id, bar_id, business_date::text, status, opened_by, opened_at, closing_by, closing_at,
	closed_by, closed_at, reconciled_by, reconciled_at, notes, created_at, updated_at`

func (r *DayRepo) Create(ctx context.Context, d *entity.Day) error {
	query := `
		INSERT INTO days (id, bar_id, business_date, status, opened_by, opened_at, closing_by, closing_at,
			closed_by, closed_at, reconciled_by, reconciled_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3::text::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.BarID, d.BusinessDate, string(d.Status), d.OpenedBy, d.OpenedAt, d.ClosingBy, d.ClosingAt,
		d.ClosedBy, d.ClosedAt, d.ReconciledBy, d.ReconciledAt, d.Notes, d.CreatedAt, d.UpdatedAt,
	)
	return mapError("insert day", err)
}

func (r *DayRepo) GetByID(ctx context.Context, barID, id string) (*entity.Day, error) {
	return r.getOne(ctx, "get day", `SELECT `+dayColumns+` FROM days WHERE bar_id = $1 AND id = $2`, barID, id)
}

func (r *DayRepo) GetForUpdate(ctx context.Context, barID, id string) (*entity.Day, error) {
	return r.getOne(ctx, "get day for update", `SELECT `+dayColumns+` FROM days WHERE bar_id = $1 AND id = $2 FOR UPDATE`, barID, id)
}

func (r *DayRepo) GetByDate(ctx context.Context, barID, businessDate string) (*entity.Day, error) {
	return r.getOne(ctx, "get day by date", `SELECT `+dayColumns+` FROM days WHERE bar_id = $1 AND business_date = $2::text::date`, barID, businessDate)
}

func (r *DayRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Day, error) {
	d, err := scanDay(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return d, nil
}

func (r *DayRepo) ListByStatus(ctx context.Context, barID string, status entity.DayStatus) ([]*entity.Day, error) {
	rows, err := r.q.Query(ctx, `SELECT `+dayColumns+` FROM days WHERE bar_id = $1 AND status = $2 ORDER BY business_date DESC`, barID, string(status))
	if err != nil {
		return nil, mapError("list days", err)
	}
	defer rows.Close()
	var out []*entity.Day
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, mapError("scan day", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list days", err)
	}
	return out, nil
}

// Update compare-and-set sobre status.
func (r *DayRepo) Update(ctx context.Context, d *entity.Day, expected entity.DayStatus) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE days SET status = $3, closing_by = $4, closing_at = $5, closed_by = $6, closed_at = $7,
			reconciled_by = $8, reconciled_at = $9, notes = $10, updated_at = $11
		WHERE bar_id = $1 AND id = $2 AND status = $12`,
		d.BarID, d.ID, string(d.Status), d.ClosingBy, d.ClosingAt, d.ClosedBy, d.ClosedAt,
		d.ReconciledBy, d.ReconciledAt, d.Notes, d.UpdatedAt, string(expected),
	)
	if err != nil {
		return mapError("update day", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrStaleWrite
	}
	return nil
}

func scanDay(row pgx.Row) (*entity.Day, error) {
	var (
		d      entity.Day
		status string
	)
	err := row.Scan(&d.ID, &d.BarID, &d.BusinessDate, &status, &d.OpenedBy, &d.OpenedAt, &d.ClosingBy, &d.ClosingAt,
		&d.ClosedBy, &d.ClosedAt, &d.ReconciledBy, &d.ReconciledAt, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = entity.DayStatus(status)
	return &d, nil
}

// ShiftRepo turnos (pool o tx).
type ShiftRepo struct {
	q Querier
}

// NewShiftRepository construye el adaptador. Pasar pool o tx (Querier).
func NewShiftRepository(q Querier) *ShiftRepo {
	return &ShiftRepo{q: q}
}

const shiftColumns = `id, bar_id, day_id, name, status, scheduled_by, scheduled_at, opened_by, opened_at,
	closing_by, closing_at, closed_by, closed_at, reconciled_by, reconciled_at, notes, created_at, updated_at`

func (r *ShiftRepo) Create(ctx context.Context, s *entity.Shift) error {
	_, err := r.q.Exec(ctx, `INSERT INTO shifts (`+shiftColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		s.ID, s.BarID, s.DayID, s.Name, string(s.Status), s.ScheduledBy, s.ScheduledAt, s.OpenedBy, s.OpenedAt,
		s.ClosingBy, s.ClosingAt, s.ClosedBy, s.ClosedAt, s.ReconciledBy, s.ReconciledAt, s.Notes, s.CreatedAt, s.UpdatedAt,
	)
	return mapError("insert shift", err)
}

func (r *ShiftRepo) GetByID(ctx context.Context, barID, id string) (*entity.Shift, error) {
	return r.getOne(ctx, "get shift", `SELECT `+shiftColumns+` FROM shifts WHERE bar_id = $1 AND id = $2`, barID, id)
}

func (r *ShiftRepo) GetForUpdate(ctx context.Context, barID, id string) (*entity.Shift, error) {
	return r.getOne(ctx, "get shift for update", `SELECT `+shiftColumns+` FROM shifts WHERE bar_id = $1 AND id = $2 FOR UPDATE`, barID, id)
}

// GetForShare FOR SHARE: convive con otras lecturas de ventana pero espera a (y hace esperar a)
// un GetForUpdate de cambio de estado.
func (r *ShiftRepo) GetForShare(ctx context.Context, barID, id string) (*entity.Shift, error) {
	return r.getOne(ctx, "get shift for share", `SELECT `+shiftColumns+` FROM shifts WHERE bar_id = $1 AND id = $2 FOR SHARE`, barID, id)
}

func (r *ShiftRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Shift, error) {
	s, err := scanShift(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return s, nil
}

func (r *ShiftRepo) ListByDay(ctx context.Context, barID, dayID string) ([]*entity.Shift, error) {
	rows, err := r.q.Query(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE bar_id = $1 AND day_id = $2 ORDER BY scheduled_at, id`, barID, dayID)
	if err != nil {
		return nil, mapError("list shifts", err)
	}
	defer rows.Close()
	var out []*entity.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, mapError("scan shift", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list shifts", err)
	}
	return out, nil
}

func (r *ShiftRepo) Update(ctx context.Context, s *entity.Shift, expected entity.ShiftStatus) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE shifts SET status = $3, opened_by = $4, opened_at = $5, closing_by = $6, closing_at = $7,
			closed_by = $8, closed_at = $9, reconciled_by = $10, reconciled_at = $11, notes = $12, updated_at = $13
		WHERE bar_id = $1 AND id = $2 AND status = $14`,
		s.BarID, s.ID, string(s.Status), s.OpenedBy, s.OpenedAt, s.ClosingBy, s.ClosingAt,
		s.ClosedBy, s.ClosedAt, s.ReconciledBy, s.ReconciledAt, s.Notes, s.UpdatedAt, string(expected),
	)
	if err != nil {
		return mapError("update shift", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrStaleWrite
	}
	return nil
}

func scanShift(row pgx.Row) (*entity.Shift, error) {
	var (
		s      entity.Shift
		status string
	)
	err := row.Scan(&s.ID, &s.BarID, &s.DayID, &s.Name, &status, &s.ScheduledBy, &s.ScheduledAt, &s.OpenedBy, &s.OpenedAt,
		&s.ClosingBy, &s.ClosingAt, &s.ClosedBy, &s.ClosedAt, &s.ReconciledBy, &s.ReconciledAt, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = entity.ShiftStatus(status)
	return &s, nil
}

// ShiftAssignmentRepo asignaciones de personal a turnos (pool o tx).
type ShiftAssignmentRepo struct {
	q Querier
}

// NewShiftAssignmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewShiftAssignmentRepository(q Querier) *ShiftAssignmentRepo {
	return &ShiftAssignmentRepo{q: q}
}

const assignmentColumns = `id, bar_id, shift_id, user_id, role, assigned_by, assigned_at`

func (r *ShiftAssignmentRepo) Create(ctx context.Context, a *entity.ShiftAssignment) error {
	_, err := r.q.Exec(ctx, `INSERT INTO shift_assignments (`+assignmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.BarID, a.ShiftID, a.UserID, a.Role, a.AssignedBy, a.AssignedAt)
	return mapError("insert shift assignment", err)
}

func (r *ShiftAssignmentRepo) Get(ctx context.Context, barID, shiftID, userID string) (*entity.ShiftAssignment, error) {
	var a entity.ShiftAssignment
	err := r.q.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM shift_assignments WHERE bar_id = $1 AND shift_id = $2 AND user_id = $3`,
		barID, shiftID, userID,
	).Scan(&a.ID, &a.BarID, &a.ShiftID, &a.UserID, &a.Role, &a.AssignedBy, &a.AssignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get shift assignment", err)
	}
	return &a, nil
}

func (r *ShiftAssignmentRepo) ListByShift(ctx context.Context, barID, shiftID string) ([]*entity.ShiftAssignment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+assignmentColumns+` FROM shift_assignments WHERE bar_id = $1 AND shift_id = $2 ORDER BY assigned_at, id`, barID, shiftID)
	if err != nil {
		return nil, mapError("list shift assignments", err)
	}
	defer rows.Close()
	var out []*entity.ShiftAssignment
	for rows.Next() {
		var a entity.ShiftAssignment
		if err := rows.Scan(&a.ID, &a.BarID, &a.ShiftID, &a.UserID, &a.Role, &a.AssignedBy, &a.AssignedAt); err != nil {
			return nil, mapError("scan shift assignment", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list shift assignments", err)
	}
	return out, nil
}
