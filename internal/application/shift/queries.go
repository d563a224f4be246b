package shift

import (
	"context"

	"github.com/jhoicas/custodia-api/internal/application/guard"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

var anyRole = []string{entity.RoleOwner, entity.RoleManager, entity.RoleBartender, entity.RoleServer}

// GetDay jornada por id.
func (uc *UseCase) GetDay(ctx context.Context, actor entity.Actor, dayID string) (*entity.Day, error) {
	if err := guard.Role(actor, "getDay", anyRole...); err != nil {
		return nil, err
	}
	d, err := uc.repos.Days.GetByID(ctx, actor.BarID, dayID)
	if err != nil {
		return nil, guard.Classify(err)
	}
	if d == nil {
		return nil, domain.NotFound("day", dayID)
	}
	return d, nil
}

// CurrentDay la jornada abierta del bar; NotFound si no hay ninguna.
func (uc *UseCase) CurrentDay(ctx context.Context, actor entity.Actor) (*entity.Day, error) {
	if err := guard.Role(actor, "currentDay", anyRole...); err != nil {
		return nil, err
	}
	open, err := uc.repos.Days.ListByStatus(ctx, actor.BarID, entity.DayOpen)
	if err != nil {
		return nil, guard.Classify(err)
	}
	if len(open) == 0 {
		return nil, domain.NotFound("day", "current")
	}
	return open[0], nil
}

// GetShift turno por id.
func (uc *UseCase) GetShift(ctx context.Context, actor entity.Actor, shiftID string) (*entity.Shift, error) {
	if err := guard.Role(actor, "getShift", anyRole...); err != nil {
		return nil, err
	}
	s, err := uc.repos.Shifts.GetByID(ctx, actor.BarID, shiftID)
	if err != nil {
		return nil, guard.Classify(err)
	}
	if s == nil {
		return nil, domain.NotFound("shift", shiftID)
	}
	return s, nil
}

// ListShifts turnos de una jornada.
func (uc *UseCase) ListShifts(ctx context.Context, actor entity.Actor, dayID string) ([]*entity.Shift, error) {
	if _, err := uc.GetDay(ctx, actor, dayID); err != nil {
		return nil, err
	}
	list, err := uc.repos.Shifts.ListByDay(ctx, actor.BarID, dayID)
	if err != nil {
		return nil, guard.Classify(err)
	}
	return list, nil
}

// ListAssignments personal asignado a un turno.
func (uc *UseCase) ListAssignments(ctx context.Context, actor entity.Actor, shiftID string) ([]*entity.ShiftAssignment, error) {
	if _, err := uc.GetShift(ctx, actor, shiftID); err != nil {
		return nil, err
	}
	list, err := uc.repos.Assignments.ListByShift(ctx, actor.BarID, shiftID)
	if err != nil {
		return nil, guard.Classify(err)
	}
	return list, nil
}
