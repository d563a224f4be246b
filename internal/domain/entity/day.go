package entity

import (
	"time"

	"github.com/jhoicas/custodia-api/internal/domain"
)

// BusinessDateLayout formato de la fecha de negocio.
const BusinessDateLayout = "2006-01-02"

// ParseBusinessDate valida una fecha YYYY-MM-DD.
func ParseBusinessDate(s string) (string, error) {
	t, err := time.Parse(BusinessDateLayout, s)
	if err != nil {
		return "", domain.Validation("fecha de negocio inválida, se espera YYYY-MM-DD").With("business_date", s)
	}
	return t.Format(BusinessDateLayout), nil
}

// DayStatus estados de una jornada.
type DayStatus string

const (
	DayOpen       DayStatus = "open"
	DayClosing    DayStatus = "closing"
	DayClosed     DayStatus = "closed"
	DayReconciled DayStatus = "reconciled"
)

var DayStatuses = []DayStatus{DayOpen, DayClosing, DayClosed, DayReconciled}

// Day jornada de negocio de un bar; (BarID, BusinessDate) es único.
type Day struct {
	ID           string
	BarID        string
	BusinessDate string
	Status       DayStatus
	OpenedBy     string
	OpenedAt     time.Time
	ClosingBy    *string
	ClosingAt    *time.Time
	ClosedBy     *string
	ClosedAt     *time.Time
	ReconciledBy *string
	ReconciledAt *time.Time
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ShiftStatus estados de un turno.
type ShiftStatus string

const (
	ShiftScheduled  ShiftStatus = "scheduled"
	ShiftOpen       ShiftStatus = "open"
	ShiftClosing    ShiftStatus = "closing"
	ShiftClosed     ShiftStatus = "closed"
	ShiftReconciled ShiftStatus = "reconciled"
)

var ShiftStatuses = []ShiftStatus{ShiftScheduled, ShiftOpen, ShiftClosing, ShiftClosed, ShiftReconciled}

// Shift turno dentro de una jornada.
type Shift struct {
	ID           string
	BarID        string
	DayID        string
	Name         string
	Status       ShiftStatus
	ScheduledBy  string
	ScheduledAt  time.Time
	OpenedBy     *string
	OpenedAt     *time.Time
	ClosingBy    *string
	ClosingAt    *time.Time
	ClosedBy     *string
	ClosedAt     *time.Time
	ReconciledBy *string
	ReconciledAt *time.Time
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Settled closed o reconciled.
func (s *Shift) Settled() bool {
	return s.Status == ShiftClosed || s.Status == ShiftReconciled
}

// ShiftAssignment asigna un usuario con un rol a un turno; único por (ShiftID, UserID).
type ShiftAssignment struct {
	ID         string
	BarID      string
	ShiftID    string
	UserID     string
	Role       string
	AssignedBy string
	AssignedAt time.Time
}
