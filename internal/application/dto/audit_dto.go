package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// ListEventsQuery filtros del registro de auditoría; type repetible, from/to en RFC3339.
type ListEventsQuery struct {
	EntityType string   `query:"entity_type" validate:"omitempty,max=50"`
	EntityID   string   `query:"entity_id" validate:"omitempty,uuid"`
	ActorID    string   `query:"actor_id" validate:"omitempty,uuid"`
	Types      []string `query:"type" validate:"dive,max=100"`
	From       string   `query:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To         string   `query:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	PageRequest
}

// EventResponse salida de un evento de auditoría.
type EventResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	ActorID    string          `json:"actor_id"`
	ActorRole  string          `json:"actor_role"`
	DeviceID   string          `json:"device_id,omitempty"`
	ShiftID    *string         `json:"shift_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// EventListResponse lista paginada de eventos (más reciente primero).
type EventListResponse struct {
	Items []EventResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// FromEvent convierte la entidad a su salida HTTP.
func FromEvent(e *entity.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		Type:       e.Type,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		DeviceID:   e.DeviceID,
		ShiftID:    e.ShiftID,
		Payload:    e.Payload,
		OccurredAt: e.OccurredAt,
		CreatedAt:  e.CreatedAt,
	}
}
