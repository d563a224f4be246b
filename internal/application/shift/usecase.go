package shift

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/custodia-api/internal/application/audit"
	"github.com/jhoicas/custodia-api/internal/application/guard"
	"github.com/jhoicas/custodia-api/internal/application/ports"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/lifecycle"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/jhoicas/custodia-api/pkg/logger"
)

// UseCase ciclo de vida de jornadas (Day) y turnos (Shift), y asignación de personal.
// El día/turno "actual" nunca se cachea: se pasa explícito o se consulta con CurrentDay.
type UseCase struct {
	txRunner ports.TxRunner
	repos    repository.Repos
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner ports.TxRunner, repos repository.Repos, log *logger.Logger) *UseCase {
	return &UseCase{
		txRunner: txRunner,
		repos:    repos,
		log:      logger.OrNop(log).Named("shift"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OpenDayInput fecha de negocio YYYY-MM-DD.
type OpenDayInput struct {
	BusinessDate string
	Notes        string
}

// OpenDay abre la jornada de una fecha (owner/manager). Solo puede haber una abierta por bar.
func (uc *UseCase) OpenDay(ctx context.Context, actor entity.Actor, in OpenDayInput) (*entity.Day, error) {
	if err := guard.Role(actor, "openDay", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	date, err := entity.ParseBusinessDate(strings.TrimSpace(in.BusinessDate))
	if err != nil {
		return nil, err
	}
	var day *entity.Day
	err = uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		if err := tx.Locker.Lock(ctx, repository.DaysLockKey(actor.BarID)); err != nil {
			return err
		}
		if err := noOtherOpenDay(ctx, tx, actor.BarID, ""); err != nil {
			return err
		}
		existing, err := tx.Days.GetByDate(ctx, actor.BarID, date)
		if err != nil {
			return err
		}
		if existing != nil {
			return duplicateDay(date)
		}
		now := uc.now()
		day = &entity.Day{
			ID:           uuid.New().String(),
			BarID:        actor.BarID,
			BusinessDate: date,
			Status:       entity.DayOpen,
			OpenedBy:     actor.UserID,
			OpenedAt:     now,
			Notes:        strings.TrimSpace(in.Notes),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Days.Create(ctx, day); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return duplicateDay(date)
			}
			return err
		}
		_, err = audit.Record(ctx, tx.Events, actor, audit.Entry{
			Type:       "day.opened",
			EntityType: entity.EntityDay,
			EntityID:   day.ID,
			Payload:    map[string]any{"business_date": date},
		}, now)
		return err
	})
	if err != nil {
		return nil, uc.reject("openDay", actor, "", err)
	}
	uc.log.Info().Str("bar_id", actor.BarID).Str("day_id", day.ID).Str("business_date", date).Msg("jornada abierta")
	return day, nil
}

// StartClosingDay open → closing.
func (uc *UseCase) StartClosingDay(ctx context.Context, actor entity.Actor, dayID string) (*entity.Day, error) {
	if err := guard.Role(actor, "startClosingDay", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	return uc.dayTransition(ctx, actor, "startClosingDay", dayID, entity.DayClosing,
		func(_ repository.Repos, d *entity.Day, now time.Time) (map[string]any, error) {
			d.ClosingBy = &actor.UserID
			d.ClosingAt = &now
			return nil, nil
		})
}

// CloseDay closing → closed. Todos los turnos deben estar closed o reconciled.
func (uc *UseCase) CloseDay(ctx context.Context, actor entity.Actor, dayID string) (*entity.Day, error) {
	if err := guard.Role(actor, "closeDay", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	return uc.dayTransition(ctx, actor, "closeDay", dayID, entity.DayClosed,
		func(tx repository.Repos, d *entity.Day, now time.Time) (map[string]any, error) {
			shifts, err := tx.Shifts.ListByDay(ctx, d.BarID, d.ID)
			if err != nil {
				return nil, err
			}
			var pending []string
			for _, s := range shifts {
				if !s.Settled() {
					pending = append(pending, s.ID)
				}
			}
			if len(pending) > 0 {
				return nil, domain.Precondition(domain.CodeOpenShifts, "la jornada tiene turnos sin cerrar").
					With("count", len(pending)).
					With("shift_ids", pending)
			}
			d.ClosedBy = &actor.UserID
			d.ClosedAt = &now
			return map[string]any{"shifts": len(shifts)}, nil
		})
}

// ReconcileDay closed → reconciled.
func (uc *UseCase) ReconcileDay(ctx context.Context, actor entity.Actor, dayID string) (*entity.Day, error) {
	if err := guard.Role(actor, "reconcileDay", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	return uc.dayTransition(ctx, actor, "reconcileDay", dayID, entity.DayReconciled,
		func(_ repository.Repos, d *entity.Day, now time.Time) (map[string]any, error) {
			d.ReconciledBy = &actor.UserID
			d.ReconciledAt = &now
			return nil, nil
		})
}

// ReopenDay closing|closed|reconciled → open con motivo. Sigue sin permitir dos jornadas abiertas.
func (uc *UseCase) ReopenDay(ctx context.Context, actor entity.Actor, dayID, reason string) (*entity.Day, error) {
	if err := guard.Role(actor, "reopenDay", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	if err := guard.Reason(reason); err != nil {
		return nil, err
	}
	reason = entity.NormalizeReason(reason)
	return uc.dayTransition(ctx, actor, "reopenDay", dayID, entity.DayOpen,
		func(tx repository.Repos, d *entity.Day, now time.Time) (map[string]any, error) {
			if err := tx.Locker.Lock(ctx, repository.DaysLockKey(d.BarID)); err != nil {
				return nil, err
			}
			if err := noOtherOpenDay(ctx, tx, d.BarID, d.ID); err != nil {
				return nil, err
			}
			d.Notes = appendNote(d.Notes, now, "reabierta: "+reason)
			return map[string]any{"reason": reason}, nil
		})
}

type dayMutateFn func(tx repository.Repos, d *entity.Day, now time.Time) (map[string]any, error)

func (uc *UseCase) dayTransition(ctx context.Context, actor entity.Actor, op, dayID string, to entity.DayStatus, mutate dayMutateFn) (*entity.Day, error) {
	if dayID == "" {
		return nil, domain.Validation("day_id obligatorio")
	}
	var day *entity.Day
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		d, err := tx.Days.GetForUpdate(ctx, actor.BarID, dayID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.NotFound("day", dayID)
		}
		from := d.Status
		if err := lifecycle.Days.Check(from, to); err != nil {
			return err
		}
		now := uc.now()
		payload, err := mutate(tx, d, now)
		if err != nil {
			return err
		}
		d.Status = to
		d.UpdatedAt = now
		if err := tx.Days.Update(ctx, d, from); err != nil {
			return err
		}
		if payload == nil {
			payload = map[string]any{}
		}
		payload["from"] = string(from)
		payload["to"] = string(to)
		if _, err := audit.Record(ctx, tx.Events, actor, audit.Entry{
			Type:       dayEventType(from, to),
			EntityType: entity.EntityDay,
			EntityID:   d.ID,
			Payload:    payload,
		}, now); err != nil {
			return err
		}
		day = d
		return nil
	})
	if err != nil {
		return nil, uc.reject(op, actor, dayID, err)
	}
	uc.log.Info().Str("op", op).Str("bar_id", actor.BarID).Str("day_id", dayID).Str("status", string(to)).Msg("jornada actualizada")
	return day, nil
}

// ScheduleShiftInput turno nuevo dentro de una jornada abierta.
type ScheduleShiftInput struct {
	DayID string
	Name  string
	Notes string
}

// ScheduleShift crea un turno scheduled (owner/manager); la jornada debe estar abierta.
func (uc *UseCase) ScheduleShift(ctx context.Context, actor entity.Actor, in ScheduleShiftInput) (*entity.Shift, error) {
	if err := guard.Role(actor, "scheduleShift", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validation("el nombre del turno es obligatorio")
	}
	var shift *entity.Shift
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		if _, err := openDay(ctx, tx, actor.BarID, in.DayID); err != nil {
			return err
		}
		now := uc.now()
		shift = &entity.Shift{
			ID:          uuid.New().String(),
			BarID:       actor.BarID,
			DayID:       in.DayID,
			Name:        name,
			Status:      entity.ShiftScheduled,
			ScheduledBy: actor.UserID,
			ScheduledAt: now,
			Notes:       strings.TrimSpace(in.Notes),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Shifts.Create(ctx, shift); err != nil {
			return err
		}
		_, err := audit.Record(ctx, tx.Events, actor, audit.Entry{
			Type:       "shift.scheduled",
			EntityType: entity.EntityShift,
			EntityID:   shift.ID,
			Payload:    map[string]any{"day_id": in.DayID, "name": name},
		}, now)
		return err
	})
	if err != nil {
		return nil, uc.reject("scheduleShift", actor, in.DayID, err)
	}
	uc.log.Info().Str("bar_id", actor.BarID).Str("shift_id", shift.ID).Str("day_id", in.DayID).Msg("turno programado")
	return shift, nil
}

// OpenShift scheduled → open (owner/manager/bartender); la jornada debe estar abierta.
func (uc *UseCase) OpenShift(ctx context.Context, actor entity.Actor, shiftID string) (*entity.Shift, error) {
	if err := guard.Role(actor, "openShift", entity.RoleOwner, entity.RoleManager, entity.RoleBartender); err != nil {
		return nil, err
	}
	return uc.shiftTransition(ctx, actor, "openShift", shiftID, entity.ShiftOpen, true, []entity.ShiftStatus{entity.ShiftScheduled},
		func(_ repository.Repos, s *entity.Shift, now time.Time) (map[string]any, error) {
			s.OpenedBy = &actor.UserID
			s.OpenedAt = &now
			return nil, nil
		})
}

// StartClosingShift open → closing (owner/manager/bartender).
func (uc *UseCase) StartClosingShift(ctx context.Context, actor entity.Actor, shiftID string) (*entity.Shift, error) {
	if err := guard.Role(actor, "startClosingShift", entity.RoleOwner, entity.RoleManager, entity.RoleBartender); err != nil {
		return nil, err
	}
	return uc.shiftTransition(ctx, actor, "startClosingShift", shiftID, entity.ShiftClosing, false, nil,
		func(_ repository.Repos, s *entity.Shift, now time.Time) (map[string]any, error) {
			s.ClosingBy = &actor.UserID
			s.ClosingAt = &now
			return nil, nil
		})
}

// unsettled estados de venta que impiden cerrar un turno.
var unsettled = []entity.SaleStatus{entity.SalePending, entity.SaleCollected, entity.SaleDisputed}

// CloseShift closing → closed (owner/manager/bartender). Sin ventas pending, collected ni disputed.
func (uc *UseCase) CloseShift(ctx context.Context, actor entity.Actor, shiftID string) (*entity.Shift, error) {
	if err := guard.Role(actor, "closeShift", entity.RoleOwner, entity.RoleManager, entity.RoleBartender); err != nil {
		return nil, err
	}
	return uc.shiftTransition(ctx, actor, "closeShift", shiftID, entity.ShiftClosed, false, nil,
		func(tx repository.Repos, s *entity.Shift, now time.Time) (map[string]any, error) {
			n, err := tx.Sales.CountByShift(ctx, s.BarID, s.ID, unsettled)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				return nil, domain.Precondition(domain.CodeUnsettledSales, "el turno tiene ventas sin liquidar").
					With("count", n).
					With("shift_id", s.ID)
			}
			s.ClosedBy = &actor.UserID
			s.ClosedAt = &now
			return nil, nil
		})
}

// ReconcileShift closed → reconciled (owner/manager).
func (uc *UseCase) ReconcileShift(ctx context.Context, actor entity.Actor, shiftID string) (*entity.Shift, error) {
	if err := guard.Role(actor, "reconcileShift", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	return uc.shiftTransition(ctx, actor, "reconcileShift", shiftID, entity.ShiftReconciled, false, nil,
		func(_ repository.Repos, s *entity.Shift, now time.Time) (map[string]any, error) {
			s.ReconciledBy = &actor.UserID
			s.ReconciledAt = &now
			return nil, nil
		})
}

// ReopenShift closing|closed|reconciled → open (owner/manager) con motivo; la jornada debe estar abierta.
func (uc *UseCase) ReopenShift(ctx context.Context, actor entity.Actor, shiftID, reason string) (*entity.Shift, error) {
	if err := guard.Role(actor, "reopenShift", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	if err := guard.Reason(reason); err != nil {
		return nil, err
	}
	reason = entity.NormalizeReason(reason)
	return uc.shiftTransition(ctx, actor, "reopenShift", shiftID, entity.ShiftOpen, true, reopenableShift,
		func(_ repository.Repos, s *entity.Shift, now time.Time) (map[string]any, error) {
			s.Notes = appendNote(s.Notes, now, "reabierto: "+reason)
			return map[string]any{"reason": reason}, nil
		})
}

// reopenableShift estados desde los que ReopenShift vuelve a abrir; scheduled → open es OpenShift.
var reopenableShift = []entity.ShiftStatus{entity.ShiftClosing, entity.ShiftClosed, entity.ShiftReconciled}

type shiftMutateFn func(tx repository.Repos, s *entity.Shift, now time.Time) (map[string]any, error)

// shiftTransition orden de locks: jornada (si needsOpenDay) y luego turno.
// sources restringe los estados origen aceptados por la operación; nil = los de la tabla.
func (uc *UseCase) shiftTransition(ctx context.Context, actor entity.Actor, op, shiftID string, to entity.ShiftStatus, needsOpenDay bool, sources []entity.ShiftStatus, mutate shiftMutateFn) (*entity.Shift, error) {
	if shiftID == "" {
		return nil, domain.Validation("shift_id obligatorio")
	}
	var shift *entity.Shift
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		if needsOpenDay {
			current, err := tx.Shifts.GetByID(ctx, actor.BarID, shiftID)
			if err != nil {
				return err
			}
			if current == nil {
				return domain.NotFound("shift", shiftID)
			}
			if _, err := openDay(ctx, tx, actor.BarID, current.DayID); err != nil {
				return err
			}
		}
		s, err := tx.Shifts.GetForUpdate(ctx, actor.BarID, shiftID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.NotFound("shift", shiftID)
		}
		from := s.Status
		if err := lifecycle.Shifts.Check(from, to); err != nil {
			return err
		}
		if sources != nil && !slices.Contains(sources, from) {
			return domain.IllegalTransition("shift", from, to).With("op", op)
		}
		now := uc.now()
		payload, err := mutate(tx, s, now)
		if err != nil {
			return err
		}
		s.Status = to
		s.UpdatedAt = now
		if err := tx.Shifts.Update(ctx, s, from); err != nil {
			return err
		}
		if payload == nil {
			payload = map[string]any{}
		}
		payload["from"] = string(from)
		payload["to"] = string(to)
		payload["day_id"] = s.DayID
		if _, err := audit.Record(ctx, tx.Events, actor, audit.Entry{
			Type:       shiftEventType(from, to),
			EntityType: entity.EntityShift,
			EntityID:   s.ID,
			Payload:    payload,
		}, now); err != nil {
			return err
		}
		shift = s
		return nil
	})
	if err != nil {
		return nil, uc.reject(op, actor, shiftID, err)
	}
	uc.log.Info().Str("op", op).Str("bar_id", actor.BarID).Str("shift_id", shiftID).Str("status", string(to)).Msg("turno actualizado")
	return shift, nil
}

// AssignInput asigna un usuario del bar a un turno con su rol.
type AssignInput struct {
	ShiftID string
	UserID  string
	Role    string
}

// AssignToShift (owner/manager). El rol debe coincidir con el del usuario; (turno, usuario) es único.
func (uc *UseCase) AssignToShift(ctx context.Context, actor entity.Actor, in AssignInput) (*entity.ShiftAssignment, error) {
	if err := guard.Role(actor, "assignToShift", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	if !entity.ValidRole(in.Role) {
		return nil, domain.Validation("rol inválido: %q", in.Role)
	}
	var assignment *entity.ShiftAssignment
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		s, err := tx.Shifts.GetByID(ctx, actor.BarID, in.ShiftID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.NotFound("shift", in.ShiftID)
		}
		if s.Settled() {
			return domain.Precondition(domain.CodeWindowClosed, "el turno ya está cerrado").
				With("shift_id", s.ID).
				With("status", string(s.Status))
		}
		if _, err := guard.Holder(ctx, tx.Users, actor.BarID, in.UserID, in.Role); err != nil {
			return err
		}
		prev, err := tx.Assignments.Get(ctx, actor.BarID, s.ID, in.UserID)
		if err != nil {
			return err
		}
		if prev != nil {
			return duplicateAssignment(s.ID, in.UserID)
		}
		now := uc.now()
		assignment = &entity.ShiftAssignment{
			ID:         uuid.New().String(),
			BarID:      actor.BarID,
			ShiftID:    s.ID,
			UserID:     in.UserID,
			Role:       in.Role,
			AssignedBy: actor.UserID,
			AssignedAt: now,
		}
		if err := tx.Assignments.Create(ctx, assignment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return duplicateAssignment(s.ID, in.UserID)
			}
			return err
		}
		_, err = audit.Record(ctx, tx.Events, actor, audit.Entry{
			Type:       "shift_assignment.created",
			EntityType: entity.EntityAssignment,
			EntityID:   assignment.ID,
			Payload:    map[string]any{"shift_id": s.ID, "user_id": in.UserID, "role": in.Role},
		}, now)
		return err
	})
	if err != nil {
		return nil, uc.reject("assignToShift", actor, in.ShiftID, err)
	}
	uc.log.Info().Str("bar_id", actor.BarID).Str("shift_id", in.ShiftID).Str("user_id", in.UserID).Msg("usuario asignado al turno")
	return assignment, nil
}

func (uc *UseCase) reject(op string, actor entity.Actor, entityID string, err error) error {
	err = guard.Classify(err)
	uc.log.Warn().Err(err).
		Str("op", op).
		Str("bar_id", actor.BarID).
		Str("actor_id", actor.UserID).
		Str("entity_id", entityID).
		Msg("operación de jornada/turno rechazada")
	return err
}

// openDay carga y bloquea la jornada exigiendo estado open.
func openDay(ctx context.Context, tx repository.Repos, barID, dayID string) (*entity.Day, error) {
	if dayID == "" {
		return nil, domain.Validation("day_id obligatorio")
	}
	d, err := tx.Days.GetForUpdate(ctx, barID, dayID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.NotFound("day", dayID)
	}
	if d.Status != entity.DayOpen {
		return nil, domain.Precondition(domain.CodeWindowClosed, "la jornada no está abierta").
			With("day_id", d.ID).
			With("status", string(d.Status))
	}
	return d, nil
}

// noOtherOpenDay falla si el bar ya tiene una jornada abierta distinta de exceptID.
func noOtherOpenDay(ctx context.Context, tx repository.Repos, barID, exceptID string) error {
	open, err := tx.Days.ListByStatus(ctx, barID, entity.DayOpen)
	if err != nil {
		return err
	}
	for _, d := range open {
		if d.ID != exceptID {
			return domain.Precondition(domain.CodeDayAlreadyOpen, "ya hay una jornada abierta").
				With("day_id", d.ID).
				With("business_date", d.BusinessDate)
		}
	}
	return nil
}

func duplicateDay(date string) error {
	return domain.Precondition(domain.CodeDuplicateDay, "ya existe una jornada para la fecha").With("business_date", date)
}

func duplicateAssignment(shiftID, userID string) error {
	return domain.Precondition(domain.CodeDuplicateAssignment, "el usuario ya está asignado al turno").
		With("shift_id", shiftID).
		With("user_id", userID)
}

func appendNote(notes string, at time.Time, line string) string {
	entry := "[" + at.Format(time.RFC3339) + "] " + line
	if notes == "" {
		return entry
	}
	return notes + "\n" + entry
}

func dayEventType(from, to entity.DayStatus) string {
	if to == entity.DayOpen && from != entity.DayOpen {
		return "day.reopened"
	}
	return "day." + string(to)
}

func shiftEventType(from, to entity.ShiftStatus) string {
	switch {
	case to == entity.ShiftOpen && from == entity.ShiftScheduled:
		return "shift.opened"
	case to == entity.ShiftOpen:
		return "shift.reopened"
	}
	return "shift." + string(to)
}
