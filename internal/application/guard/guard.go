// Package guard reúne las precondiciones compartidas por los casos de uso:
// rol del actor, ventana de turno, holders y motivos.
package guard

import (
	"context"
	"errors"

	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

// Role falla con Forbidden si el actor no tiene ninguno de los roles.
func Role(actor entity.Actor, op string, roles ...string) error {
	if actor.UserID == "" || actor.BarID == "" {
		return domain.Forbidden("actor sin usuario o bar")
	}
	if !actor.HasRole(roles...) {
		return domain.Forbidden("el rol %q no puede ejecutar %s", actor.Role, op).With("allowed", roles)
	}
	return nil
}

// Reason valida un motivo obligatorio.
func Reason(reason string) error {
	if !entity.ValidReason(reason) {
		return domain.Validation("el motivo debe tener al menos %d caracteres", entity.MinReasonLength)
	}
	return nil
}

// Shift resuelve el turno que trae el actor y exige que esté en uno de los estados.
// Sin turno en el actor: error si required, si no (nil, nil).
// Se llama dentro de la transacción: la lectura FOR SHARE impide que el turno se cierre
// antes del commit de la operación que lo usa como ventana.
func Shift(ctx context.Context, shifts repository.ShiftRepository, actor entity.Actor, required bool, statuses ...entity.ShiftStatus) (*entity.Shift, error) {
	if actor.ShiftID == nil || *actor.ShiftID == "" {
		if required {
			return nil, domain.Precondition(domain.CodeWindowClosed, "la operación requiere un turno abierto")
		}
		return nil, nil
	}
	s, err := shifts.GetForShare(ctx, actor.BarID, *actor.ShiftID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.NotFound("shift", *actor.ShiftID)
	}
	for _, st := range statuses {
		if s.Status == st {
			return s, nil
		}
	}
	return nil, domain.Precondition(domain.CodeWindowClosed, "el turno no está en un estado que permita la operación").
		With("shift_id", s.ID).
		With("status", string(s.Status))
}

// Assigned exige que el usuario esté asignado al turno.
func Assigned(ctx context.Context, assignments repository.ShiftAssignmentRepository, barID, shiftID, userID string) error {
	a, err := assignments.Get(ctx, barID, shiftID, userID)
	if err != nil {
		return err
	}
	if a == nil {
		return domain.Precondition(domain.CodeNotAssigned, "el usuario no está asignado al turno").
			With("shift_id", shiftID).
			With("user_id", userID)
	}
	return nil
}

// Holder resuelve un usuario activo del bar y exige uno de los roles.
func Holder(ctx context.Context, users repository.UserRepository, barID, userID string, roles ...string) (*entity.User, error) {
	if userID == "" {
		return nil, domain.Validation("holder obligatorio")
	}
	u, err := users.GetByID(ctx, barID, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.Active() {
		return nil, domain.NotFound("user", userID)
	}
	for _, r := range roles {
		if u.Role == r {
			return u, nil
		}
	}
	return nil, domain.Precondition(domain.CodeWrongHolderRole, "el holder no tiene el rol requerido").
		With("user_id", userID).
		With("role", u.Role).
		With("expected", roles)
}

// Product resuelve un producto activo del bar.
func Product(ctx context.Context, products repository.ProductRepository, barID, productID string) (*entity.Product, error) {
	if productID == "" {
		return nil, domain.Validation("product_id obligatorio")
	}
	p, err := products.GetByID(ctx, barID, productID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Active {
		return nil, domain.NotFound("product", productID)
	}
	return p, nil
}

// Classify traduce errores de persistencia a la taxonomía del dominio.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrSerialization), errors.Is(err, repository.ErrStaleWrite):
		return domain.Conflict("otra operación modificó el registro antes del commit, reintente")
	default:
		return domain.Internal(err)
	}
}
