package audit

import (
	"context"
	"time"

	"github.com/jhoicas/custodia-api/internal/application/guard"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

// QueryUseCase consulta de solo lectura del registro de auditoría.
type QueryUseCase struct {
	events repository.EventRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(events repository.EventRepository) *QueryUseCase {
	return &QueryUseCase{events: events}
}

// ListInput filtros opcionales.
type ListInput struct {
	EntityType string
	EntityID   string
	ActorID    string
	Types      []string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// List devuelve los eventos del bar del actor (solo owner/manager).
func (uc *QueryUseCase) List(ctx context.Context, actor entity.Actor, in ListInput) ([]*entity.Event, error) {
	if err := guard.Role(actor, "audit.list", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	limit := repository.PageLimit(in.Limit)
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	list, err := uc.events.List(ctx, repository.EventFilter{
		BarID:      actor.BarID,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		ActorID:    in.ActorID,
		Types:      in.Types,
		From:       in.From,
		To:         in.To,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, guard.Classify(err)
	}
	return list, nil
}
