package postgres

import (
	"context"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

var _ repository.EventRepository = (*EventRepo)(nil)

// EventRepo registro de auditoría append-only (pool o tx).
type EventRepo struct {
	q Querier
}

// NewEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEventRepository(q Querier) *EventRepo {
	return &EventRepo{q: q}
}

const eventColumns = `id, bar_id, device_id, actor_id, actor_role, shift_id, type, entity_type, entity_id,
	payload, occurred_at, created_at`

func (r *EventRepo) Append(ctx context.Context, e *entity.Event) error {
	_, err := r.q.Exec(ctx, `INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.BarID, e.DeviceID, e.ActorID, e.ActorRole, e.ShiftID, e.Type, e.EntityType, e.EntityID,
		[]byte(e.Payload), e.OccurredAt, e.CreatedAt,
	)
	return mapError("insert event", err)
}

// List más reciente primero.
func (r *EventRepo) List(ctx context.Context, f repository.EventFilter) ([]*entity.Event, error) {
	w := &where{}
	w.add("bar_id = ?", f.BarID)
	if f.EntityType != "" {
		w.add("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		w.add("entity_id = ?", f.EntityID)
	}
	if f.ActorID != "" {
		w.add("actor_id = ?", f.ActorID)
	}
	if len(f.Types) > 0 {
		w.add("type = ANY(?)", f.Types)
	}
	if f.From != nil {
		w.add("occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("occurred_at <= ?", *f.To)
	}
	query := `SELECT ` + eventColumns + ` FROM events` + w.String() + ` ORDER BY created_at DESC, id DESC`
	query += w.page(f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError("list events", err)
	}
	defer rows.Close()
	var out []*entity.Event
	for rows.Next() {
		var (
			e       entity.Event
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.BarID, &e.DeviceID, &e.ActorID, &e.ActorRole, &e.ShiftID, &e.Type,
			&e.EntityType, &e.EntityID, &payload, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, mapError("scan event", err)
		}
		e.Payload = payload
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list events", err)
	}
	return out, nil
}
