package repository

import (
	"context"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// DayRepository puerto de persistencia para Day. (BarID, BusinessDate) es único.
type DayRepository interface {
	// Create ErrDuplicate si ya existe la fecha para el bar.
	Create(ctx context.Context, d *entity.Day) error
	GetByID(ctx context.Context, barID, id string) (*entity.Day, error)
	GetForUpdate(ctx context.Context, barID, id string) (*entity.Day, error)
	GetByDate(ctx context.Context, barID, businessDate string) (*entity.Day, error)
	// ListByStatus jornadas del bar en un estado, más reciente primero.
	ListByStatus(ctx context.Context, barID string, status entity.DayStatus) ([]*entity.Day, error)
	// Update escribe estado y metadatos solo si el estado actual es expected.
	Update(ctx context.Context, d *entity.Day, expected entity.DayStatus) error
}

// ShiftRepository puerto de persistencia para Shift.
type ShiftRepository interface {
	Create(ctx context.Context, s *entity.Shift) error
	GetByID(ctx context.Context, barID, id string) (*entity.Shift, error)
	GetForUpdate(ctx context.Context, barID, id string) (*entity.Shift, error)
	// GetForShare lee el turno bloqueando su cierre concurrente hasta el fin de la transacción.
	GetForShare(ctx context.Context, barID, id string) (*entity.Shift, error)
	ListByDay(ctx context.Context, barID, dayID string) ([]*entity.Shift, error)
	Update(ctx context.Context, s *entity.Shift, expected entity.ShiftStatus) error
}

// ShiftAssignmentRepository puerto de persistencia para ShiftAssignment. (ShiftID, UserID) es único.
type ShiftAssignmentRepository interface {
	Create(ctx context.Context, a *entity.ShiftAssignment) error
	Get(ctx context.Context, barID, shiftID, userID string) (*entity.ShiftAssignment, error)
	ListByShift(ctx context.Context, barID, shiftID string) ([]*entity.ShiftAssignment, error)
}
