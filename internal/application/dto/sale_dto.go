package dto

import (
	"time"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

// CreateSaleRequest venta registrada por el bartender: transfiere custodia al server.
// Sin unit_price se usa el precio del producto.
type CreateSaleRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	ServerID  string           `json:"server_id" validate:"required,uuid"`
	Quantity  int64            `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CollectSaleRequest cobro reportado por el server.
type CollectSaleRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card transfer other"`
}

// ReasonRequest cuerpo de disputa, reversa o reapertura.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListSalesQuery filtros de ventas de un turno; status repetible.
type ListSalesQuery struct {
	ShiftID  string   `query:"shift_id" validate:"required,uuid"`
	ServerID string   `query:"server_id" validate:"omitempty,uuid"`
	Statuses []string `query:"status" validate:"dive,oneof=pending collected confirmed reversed disputed"`
	PageRequest
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID              string            `json:"id"`
	ShiftID         string            `json:"shift_id"`
	ProductID       string            `json:"product_id"`
	Quantity        int64             `json:"quantity"`
	UnitPrice       decimal.Decimal   `json:"unit_price"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	ServerID        string            `json:"server_id"`
	BartenderID     string            `json:"bartender_id"`
	Status          string            `json:"status"`
	MovementID      string            `json:"movement_id"`
	CollectedAmount *decimal.Decimal  `json:"collected_amount,omitempty"`
	PaymentMethod   string            `json:"payment_method,omitempty"`
	CollectedAt     *time.Time        `json:"collected_at,omitempty"`
	ConfirmedBy     *string           `json:"confirmed_by,omitempty"`
	ConfirmedAt     *time.Time        `json:"confirmed_at,omitempty"`
	DisputeReason   string            `json:"dispute_reason,omitempty"`
	ReversalReason  string            `json:"reversal_reason,omitempty"`
	ReversalMoveID  *string           `json:"reversal_move_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Movement        *MovementResponse `json:"movement,omitempty"`
	Replayed        bool              `json:"replayed,omitempty"`
}

// SaleListResponse lista paginada de ventas de un turno.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// TotalsResponse conteo y monto de un estado.
type TotalsResponse struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ServerObligationResponse obligaciones de un server en el turno.
type ServerObligationResponse struct {
	ServerID   string          `json:"server_id,omitempty"`
	Pending    TotalsResponse  `json:"pending"`
	Collected  TotalsResponse  `json:"collected"`
	Disputed   TotalsResponse  `json:"disputed"`
	Confirmed  TotalsResponse  `json:"confirmed"`
	Reversed   TotalsResponse  `json:"reversed"`
	Obligation decimal.Decimal `json:"obligation"`
}

// ObligationSummaryResponse resumen de obligaciones del turno.
type ObligationSummaryResponse struct {
	ShiftID string                     `json:"shift_id"`
	Servers []ServerObligationResponse `json:"servers"`
	Total   ServerObligationResponse   `json:"total"`
}

// FromSale convierte la entidad a su salida HTTP. m es opcional.
func FromSale(s *entity.Sale, m *entity.Movement) SaleResponse {
	out := SaleResponse{
		ID:              s.ID,
		ShiftID:         s.ShiftID,
		ProductID:       s.ProductID,
		Quantity:        s.Quantity,
		UnitPrice:       s.UnitPrice,
		TotalPrice:      s.TotalPrice,
		ServerID:        s.ServerID,
		BartenderID:     s.BartenderID,
		Status:          string(s.Status),
		MovementID:      s.MovementID,
		CollectedAmount: s.CollectedAmount,
		PaymentMethod:   s.PaymentMethod,
		CollectedAt:     s.CollectedAt,
		ConfirmedBy:     s.ConfirmedBy,
		ConfirmedAt:     s.ConfirmedAt,
		DisputeReason:   s.DisputeReason,
		ReversalReason:  s.ReversalReason,
		ReversalMoveID:  s.ReversalMoveID,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if m != nil {
		mr := FromMovement(m)
		out.Movement = &mr
	}
	return out
}

// FromSummary convierte el resumen de obligaciones.
func FromSummary(s *settlement.Summary) ObligationSummaryResponse {
	out := ObligationSummaryResponse{
		ShiftID: s.ShiftID,
		Servers: make([]ServerObligationResponse, 0, len(s.Servers)),
		Total:   fromObligation(s.Total),
	}
	for _, o := range s.Servers {
		out.Servers = append(out.Servers, fromObligation(o))
	}
	return out
}

func fromObligation(o settlement.ServerObligation) ServerObligationResponse {
	return ServerObligationResponse{
		ServerID:   o.ServerID,
		Pending:    fromTotals(o.Pending),
		Collected:  fromTotals(o.Collected),
		Disputed:   fromTotals(o.Disputed),
		Confirmed:  fromTotals(o.Confirmed),
		Reversed:   fromTotals(o.Reversed),
		Obligation: o.Obligation,
	}
}

func fromTotals(t settlement.Totals) TotalsResponse {
	return TotalsResponse{Count: t.Count, Amount: t.Amount}
}
