package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/custodia-api/internal/domain"
)

// MovementType conjunto cerrado de tipos de movimiento de custodia.
type MovementType string

const (
	MovementDelivery      MovementType = "delivery"        // proveedor → stock del bar
	MovementAllocation    MovementType = "allocation"      // stock del bar → bartender
	MovementAssignment    MovementType = "assignment"      // bartender → server
	MovementReturn        MovementType = "return"          // server/bartender → bartender
	MovementReturnToStock MovementType = "return_to_stock" // holder → stock del bar
	MovementAdjustment    MovementType = "adjustment"      // corrección ± del stock del bar
	MovementDamage        MovementType = "damage"          // baja por daño
	MovementLoss          MovementType = "loss"            // baja por pérdida
)

// MovementTypes todos los tipos, en orden estable.
var MovementTypes = []MovementType{
	MovementDelivery, MovementAllocation, MovementAssignment, MovementReturn,
	MovementReturnToStock, MovementAdjustment, MovementDamage, MovementLoss,
}

// Valid indica si t pertenece al conjunto cerrado.
func (t MovementType) Valid() bool {
	for _, v := range MovementTypes {
		if v == t {
			return true
		}
	}
	return false
}

// RequiresReason ajuste, daño y pérdida exigen motivo.
func (t MovementType) RequiresReason() bool {
	return t == MovementAdjustment || t == MovementDamage || t == MovementLoss
}

// Movement transferencia inmutable de cantidad de producto entre holders.
// FromHolder/ToHolder nil = stock del bar. Quantity siempre positiva;
// la dirección la implica el tipo (Direction solo varía en ajustes).
type Movement struct {
	ID         string
	BarID      string
	ProductID  string
	Type       MovementType
	Quantity   int64
	Direction  int8 // +1 entra al stock del bar, -1 sale; 0 si no toca el stock del bar
	FromHolder *string
	ToHolder   *string
	ActorID    string
	DeviceID   string
	ShiftID    *string
	Reason     string
	DedupID    *string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// MovementInput datos comunes a todos los constructores.
type MovementInput struct {
	BarID     string
	ProductID string
	Quantity  int64
	Reason    string
	Actor     Actor
	Now       time.Time
}

func newMovement(in MovementInput, t MovementType) (*Movement, error) {
	if in.Quantity <= 0 {
		return nil, domain.Validation("la cantidad debe ser un entero positivo").With("quantity", in.Quantity)
	}
	if in.BarID == "" || in.ProductID == "" {
		return nil, domain.Validation("bar y producto son obligatorios")
	}
	reason := NormalizeReason(in.Reason)
	if t.RequiresReason() && !ValidReason(reason) {
		return nil, domain.Validation("el motivo debe tener al menos %d caracteres", MinReasonLength)
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &Movement{
		ID:         uuid.New().String(),
		BarID:      in.BarID,
		ProductID:  in.ProductID,
		Type:       t,
		Quantity:   in.Quantity,
		ActorID:    in.Actor.UserID,
		DeviceID:   in.Actor.DeviceID,
		ShiftID:    in.Actor.ShiftID,
		Reason:     reason,
		DedupID:    in.Actor.DedupRef(),
		OccurredAt: in.Actor.OccurredAt(now),
		CreatedAt:  now,
	}, nil
}

func requireHolder(name, id string) error {
	if id == "" {
		return domain.Validation("%s es obligatorio", name)
	}
	return nil
}

// NewDelivery entrada de stock al bar (from=nil, to=nil).
func NewDelivery(in MovementInput) (*Movement, error) {
	m, err := newMovement(in, MovementDelivery)
	if err != nil {
		return nil, err
	}
	m.Direction = 1
	return m, nil
}

// NewAllocation stock del bar → bartender.
func NewAllocation(in MovementInput, bartenderID string) (*Movement, error) {
	if err := requireHolder("to_holder", bartenderID); err != nil {
		return nil, err
	}
	m, err := newMovement(in, MovementAllocation)
	if err != nil {
		return nil, err
	}
	m.Direction = -1
	m.ToHolder = &bartenderID
	return m, nil
}

// NewAssignment bartender → server.
func NewAssignment(in MovementInput, bartenderID, serverID string) (*Movement, error) {
	return newTransfer(in, MovementAssignment, bartenderID, serverID)
}

// NewReturn holder → bartender.
func NewReturn(in MovementInput, fromID, bartenderID string) (*Movement, error) {
	return newTransfer(in, MovementReturn, fromID, bartenderID)
}

func newTransfer(in MovementInput, t MovementType, from, to string) (*Movement, error) {
	if err := requireHolder("from_holder", from); err != nil {
		return nil, err
	}
	if err := requireHolder("to_holder", to); err != nil {
		return nil, err
	}
	if from == to {
		return nil, domain.Validation("origen y destino no pueden ser el mismo holder")
	}
	m, err := newMovement(in, t)
	if err != nil {
		return nil, err
	}
	m.FromHolder = &from
	m.ToHolder = &to
	return m, nil
}

// NewReturnToStock holder → stock del bar.
func NewReturnToStock(in MovementInput, fromID string) (*Movement, error) {
	if err := requireHolder("from_holder", fromID); err != nil {
		return nil, err
	}
	m, err := newMovement(in, MovementReturnToStock)
	if err != nil {
		return nil, err
	}
	m.Direction = 1
	m.FromHolder = &fromID
	return m, nil
}

// NewAdjustment corrección del stock del bar; el signo de delta fija la dirección.
func NewAdjustment(in MovementInput, delta int64) (*Movement, error) {
	if delta == 0 {
		return nil, domain.Validation("el ajuste no puede ser cero")
	}
	dir := int8(1)
	if delta < 0 {
		dir = -1
		delta = -delta
	}
	in.Quantity = delta
	m, err := newMovement(in, MovementAdjustment)
	if err != nil {
		return nil, err
	}
	m.Direction = dir
	return m, nil
}

// NewDamage baja del stock del bar por daño.
func NewDamage(in MovementInput) (*Movement, error) {
	return newWriteOff(in, MovementDamage)
}

// NewLoss baja del stock del bar por pérdida.
func NewLoss(in MovementInput) (*Movement, error) {
	return newWriteOff(in, MovementLoss)
}

func newWriteOff(in MovementInput, t MovementType) (*Movement, error) {
	m, err := newMovement(in, t)
	if err != nil {
		return nil, err
	}
	m.Direction = -1
	return m, nil
}

// BarDelta efecto con signo sobre el stock del bar.
func (m *Movement) BarDelta() int64 {
	return int64(m.Direction) * m.Quantity
}

// HolderDelta efecto con signo sobre la custodia de holderID.
func (m *Movement) HolderDelta(holderID string) int64 {
	var d int64
	if m.ToHolder != nil && *m.ToHolder == holderID {
		d += m.Quantity
	}
	if m.FromHolder != nil && *m.FromHolder == holderID {
		d -= m.Quantity
	}
	return d
}

// Holders ids de usuario tocados por el movimiento.
func (m *Movement) Holders() []string {
	var out []string
	if m.FromHolder != nil {
		out = append(out, *m.FromHolder)
	}
	if m.ToHolder != nil {
		out = append(out, *m.ToHolder)
	}
	return out
}

// CheckShape valida la forma de holders de un movimiento ya construido (p. ej. leído de BD).
func (m *Movement) CheckShape() error {
	from, to := m.FromHolder != nil, m.ToHolder != nil
	ok := false
	switch m.Type {
	case MovementDelivery:
		ok = !from && !to && m.Direction == 1
	case MovementAllocation:
		ok = !from && to && m.Direction == -1
	case MovementAssignment, MovementReturn:
		ok = from && to && m.Direction == 0 && *m.FromHolder != *m.ToHolder
	case MovementReturnToStock:
		ok = from && !to && m.Direction == 1
	case MovementAdjustment:
		ok = !from && !to && (m.Direction == 1 || m.Direction == -1)
	case MovementDamage, MovementLoss:
		ok = !from && !to && m.Direction == -1
	}
	if !ok || m.Quantity <= 0 {
		return domain.Validation("forma de movimiento inválida para el tipo %s", m.Type)
	}
	return nil
}
