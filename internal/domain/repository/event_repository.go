package repository

import (
	"context"
	"time"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// EventFilter filtros de consulta de auditoría.
type EventFilter struct {
	BarID      string
	EntityType string
	EntityID   string
	ActorID    string
	Types      []string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// EventRepository puerto append-only de eventos de auditoría.
type EventRepository interface {
	Append(ctx context.Context, e *entity.Event) error
	List(ctx context.Context, f EventFilter) ([]*entity.Event, error)
}
