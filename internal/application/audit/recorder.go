// Package audit registra un Event por cada mutación exitosa y expone su consulta.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

// Entry describe la mutación a auditar.
type Entry struct {
	Type       string
	EntityType string
	EntityID   string
	Payload    any
}

// Record construye el Event con el contexto completo del actor y lo agrega con repo.
// Debe llamarse dentro de la misma transacción que la mutación: si la tx hace Rollback,
// el evento tampoco queda.
func Record(ctx context.Context, repo repository.EventRepository, actor entity.Actor, e Entry, now time.Time) (*entity.Event, error) {
	payload := json.RawMessage("{}")
	if e.Payload != nil {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload de evento: %w", err)
		}
		payload = b
	}
	ev := &entity.Event{
		ID:         uuid.New().String(),
		BarID:      actor.BarID,
		DeviceID:   actor.DeviceID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		ShiftID:    actor.ShiftID,
		Type:       e.Type,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Payload:    payload,
		OccurredAt: actor.OccurredAt(now),
		CreatedAt:  now,
	}
	if err := repo.Append(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// MovementPayload payload estándar de un evento de movimiento.
func MovementPayload(m *entity.Movement) map[string]any {
	p := map[string]any{
		"product_id": m.ProductID,
		"type":       string(m.Type),
		"quantity":   m.Quantity,
		"direction":  m.Direction,
	}
	if m.FromHolder != nil {
		p["from_holder"] = *m.FromHolder
	}
	if m.ToHolder != nil {
		p["to_holder"] = *m.ToHolder
	}
	if m.Reason != "" {
		p["reason"] = m.Reason
	}
	if m.DedupID != nil {
		p["dedup_id"] = *m.DedupID
	}
	return p
}
