package dto

import (
	"time"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// OpenDayRequest apertura de jornada; business_date en formato YYYY-MM-DD.
type OpenDayRequest struct {
	BusinessDate string `json:"business_date" validate:"required,datetime=2006-01-02"`
	Notes        string `json:"notes" validate:"omitempty,max=1000"`
}

// ScheduleShiftRequest programa un turno dentro de una jornada abierta.
type ScheduleShiftRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Notes string `json:"notes" validate:"omitempty,max=1000"`
}

// AssignShiftRequest asigna personal a un turno.
type AssignShiftRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=owner manager bartender server"`
}

// DayResponse salida de una jornada.
type DayResponse struct {
	ID           string     `json:"id"`
	BusinessDate string     `json:"business_date"`
	Status       string     `json:"status"`
	OpenedBy     string     `json:"opened_by"`
	OpenedAt     time.Time  `json:"opened_at"`
	ClosingAt    *time.Time `json:"closing_at,omitempty"`
	ClosedBy     *string    `json:"closed_by,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	ReconciledBy *string    `json:"reconciled_by,omitempty"`
	ReconciledAt *time.Time `json:"reconciled_at,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ShiftResponse salida de un turno.
type ShiftResponse struct {
	ID           string     `json:"id"`
	DayID        string     `json:"day_id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	ScheduledBy  string     `json:"scheduled_by"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	OpenedBy     *string    `json:"opened_by,omitempty"`
	OpenedAt     *time.Time `json:"opened_at,omitempty"`
	ClosedBy     *string    `json:"closed_by,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	ReconciledAt *time.Time `json:"reconciled_at,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AssignmentResponse salida de una asignación de turno.
type AssignmentResponse struct {
	ID         string    `json:"id"`
	ShiftID    string    `json:"shift_id"`
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"`
	AssignedBy string    `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// FromDay convierte la entidad a su salida HTTP.
func FromDay(d *entity.Day) DayResponse {
	return DayResponse{
		ID:           d.ID,
		BusinessDate: d.BusinessDate,
		Status:       string(d.Status),
		OpenedBy:     d.OpenedBy,
		OpenedAt:     d.OpenedAt,
		ClosingAt:    d.ClosingAt,
		ClosedBy:     d.ClosedBy,
		ClosedAt:     d.ClosedAt,
		ReconciledBy: d.ReconciledBy,
		ReconciledAt: d.ReconciledAt,
		Notes:        d.Notes,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// FromShift convierte la entidad a su salida HTTP.
func FromShift(s *entity.Shift) ShiftResponse {
	return ShiftResponse{
		ID:           s.ID,
		DayID:        s.DayID,
		Name:         s.Name,
		Status:       string(s.Status),
		ScheduledBy:  s.ScheduledBy,
		ScheduledAt:  s.ScheduledAt,
		OpenedBy:     s.OpenedBy,
		OpenedAt:     s.OpenedAt,
		ClosedBy:     s.ClosedBy,
		ClosedAt:     s.ClosedAt,
		ReconciledAt: s.ReconciledAt,
		Notes:        s.Notes,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// FromAssignment convierte la entidad a su salida HTTP.
func FromAssignment(a *entity.ShiftAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:         a.ID,
		ShiftID:    a.ShiftID,
		UserID:     a.UserID,
		Role:       a.Role,
		AssignedBy: a.AssignedBy,
		AssignedAt: a.AssignedAt,
	}
}
