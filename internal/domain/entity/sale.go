package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/shopspring/decimal"
)

// SaleStatus estados del ciclo de vida de una venta.
type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleCollected SaleStatus = "collected"
	SaleConfirmed SaleStatus = "confirmed"
	SaleReversed  SaleStatus = "reversed"
	SaleDisputed  SaleStatus = "disputed"
)

// SaleStatuses todos los estados, en orden estable.
var SaleStatuses = []SaleStatus{SalePending, SaleCollected, SaleConfirmed, SaleReversed, SaleDisputed}

// Métodos de pago aceptados al cobrar.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentOther    = "other"
)

// ValidPaymentMethod indica si m es un método conocido.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}

// Importes: dos decimales como las columnas NUMERIC(14,2) y NUMERIC(16,2) de la base.
const MoneyScale = 2

var (
	maxPrice  = decimal.New(1, 12)
	maxAmount = decimal.New(1, 14)
)

// CheckPrice valida un precio unitario no negativo con escala MoneyScale y menor a 10^12.
func CheckPrice(field string, d decimal.Decimal) error {
	return checkMoney(field, d, maxPrice)
}

// CheckAmount igual que CheckPrice para totales y montos cobrados (menores a 10^14).
func CheckAmount(field string, d decimal.Decimal) error {
	return checkMoney(field, d, maxAmount)
}

func checkMoney(field string, d, limit decimal.Decimal) error {
	switch {
	case d.IsNegative():
		return domain.Validation("%s no puede ser negativo", field).With("field", field)
	case !d.Equal(d.Truncate(MoneyScale)):
		return domain.Validation("%s admite a lo sumo %d decimales", field, MoneyScale).
			With("field", field).
			With("value", d.String())
	case d.GreaterThanOrEqual(limit):
		return domain.Validation("%s fuera de rango", field).With("field", field)
	}
	return nil
}

// Sale obligación de dinero creada cuando el bartender entrega stock vendido a un server.
// Se crea una vez como pending; luego solo cambian estado y metadatos de transición.
type Sale struct {
	ID          string
	BarID       string
	ShiftID     string
	ProductID   string
	Quantity    int64
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal // siempre Quantity × UnitPrice
	ServerID    string
	BartenderID string
	Status      SaleStatus
	MovementID  string // movimiento assignment emparejado

	CollectedAmount *decimal.Decimal
	PaymentMethod   string
	CollectedBy     *string
	CollectedAt     *time.Time
	ConfirmedBy     *string
	ConfirmedAt     *time.Time
	DisputedBy      *string
	DisputedAt      *time.Time
	DisputeReason   string
	ReversedBy      *string
	ReversedAt      *time.Time
	ReversalReason  string
	ReversalMoveID  *string

	DedupID   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSale construye una venta pending con total = quantity × unitPrice.
func NewSale(barID, shiftID, productID, bartenderID, serverID string, quantity int64, unitPrice decimal.Decimal, now time.Time) (*Sale, error) {
	if quantity <= 0 {
		return nil, domain.Validation("la cantidad debe ser un entero positivo").With("quantity", quantity)
	}
	if err := CheckPrice("unit_price", unitPrice); err != nil {
		return nil, err
	}
	total := unitPrice.Mul(decimal.NewFromInt(quantity))
	if err := CheckAmount("total_price", total); err != nil {
		return nil, err
	}
	if serverID == "" || bartenderID == "" {
		return nil, domain.Validation("server y bartender son obligatorios")
	}
	return &Sale{
		ID:          uuid.New().String(),
		BarID:       barID,
		ShiftID:     shiftID,
		ProductID:   productID,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  total,
		ServerID:    serverID,
		BartenderID: bartenderID,
		Status:      SalePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TotalConsistent verifica total == quantity × unit price.
func (s *Sale) TotalConsistent() bool {
	return s.TotalPrice.Equal(s.UnitPrice.Mul(decimal.NewFromInt(s.Quantity)))
}

// Unsettled pending, collected o disputed: dinero aún no cerrado.
func (s *Sale) Unsettled() bool {
	return s.Status == SalePending || s.Status == SaleCollected || s.Status == SaleDisputed
}
