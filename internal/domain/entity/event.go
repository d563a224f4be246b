package entity

import (
	"encoding/json"
	"time"
)

// Tipos de entidad referenciados por eventos.
const (
	EntityMovement   = "movement"
	EntitySale       = "sale"
	EntityDay        = "day"
	EntityShift      = "shift"
	EntityAssignment = "shift_assignment"
	EntityProduct    = "product"
	EntityUser       = "user"
)

// Event registro inmutable de auditoría; uno por cada mutación exitosa.
type Event struct {
	ID         string
	BarID      string
	DeviceID   string
	ActorID    string
	ActorRole  string
	ShiftID    *string
	Type       string // p. ej. movement.allocation, sale.created, day.reopened
	EntityType string
	EntityID   string
	Payload    json.RawMessage
	OccurredAt time.Time
	CreatedAt  time.Time
}
