package dto

import (
	"time"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/ledger"
)

// DeliveryRequest entrada de stock al bar.
type DeliveryRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Reason    string `json:"reason" validate:"omitempty,max=500"`
}

// AllocateRequest stock del bar → bartender.
type AllocateRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid"`
	BartenderID string `json:"bartender_id" validate:"required,uuid"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
}

// AssignRequest bartender (actor) → server.
type AssignRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	ServerID  string `json:"server_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// ReturnRequest devolución de un holder a un bartender o, sin to_holder_id, al stock del bar.
// Sin from_holder_id devuelve la custodia del propio actor.
type ReturnRequest struct {
	ProductID    string  `json:"product_id" validate:"required,uuid"`
	FromHolderID string  `json:"from_holder_id" validate:"omitempty,uuid"`
	ToHolderID   *string `json:"to_holder_id" validate:"omitempty,uuid"`
	Quantity     int64   `json:"quantity" validate:"required,gt=0"`
	Reason       string  `json:"reason" validate:"required,max=500"`
}

// AdjustRequest corrección del stock del bar: adjustment (±), damage o loss.
// Para adjustment Quantity lleva signo; para damage/loss debe ser positiva.
type AdjustRequest struct {
	Type      string `json:"type" validate:"required,oneof=adjustment damage loss"`
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"required,ne=0"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

// ListMovementsQuery filtros del historial; from/to en RFC3339, type repetible.
type ListMovementsQuery struct {
	ProductID string   `query:"product_id" validate:"omitempty,uuid"`
	HolderID  string   `query:"holder_id" validate:"omitempty,uuid"`
	ShiftID   string   `query:"shift_id" validate:"omitempty,uuid"`
	Types     []string `query:"type" validate:"dive,oneof=delivery allocation assignment return return_to_stock adjustment damage loss"`
	From      string   `query:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To        string   `query:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	PageRequest
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Type       string    `json:"type"`
	Quantity   int64     `json:"quantity"`
	Direction  int8      `json:"direction"`
	FromHolder *string   `json:"from_holder,omitempty"`
	ToHolder   *string   `json:"to_holder,omitempty"`
	ActorID    string    `json:"actor_id"`
	DeviceID   string    `json:"device_id,omitempty"`
	ShiftID    *string   `json:"shift_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	DedupID    *string   `json:"dedup_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
	Replayed   bool      `json:"replayed,omitempty"`
}

// MovementListResponse lista paginada de movimientos (más reciente primero).
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// BalanceResponse saldo de un producto en el bar o en un holder.
type BalanceResponse struct {
	ProductID string  `json:"product_id"`
	HolderID  *string `json:"holder_id,omitempty"`
	Quantity  int64   `json:"quantity"`
}

// HolderBalanceResponse saldo de un holder.
type HolderBalanceResponse struct {
	HolderID string `json:"holder_id"`
	Quantity int64  `json:"quantity"`
}

// ProductCustodyResponse stock disponible del bar y custodia por holder.
type ProductCustodyResponse struct {
	ProductID string                  `json:"product_id"`
	Available int64                   `json:"available"`
	Holders   []HolderBalanceResponse `json:"holders"`
}

// FromMovement convierte la entidad a su salida HTTP.
func FromMovement(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:         m.ID,
		ProductID:  m.ProductID,
		Type:       string(m.Type),
		Quantity:   m.Quantity,
		Direction:  m.Direction,
		FromHolder: m.FromHolder,
		ToHolder:   m.ToHolder,
		ActorID:    m.ActorID,
		DeviceID:   m.DeviceID,
		ShiftID:    m.ShiftID,
		Reason:     m.Reason,
		DedupID:    m.DedupID,
		OccurredAt: m.OccurredAt,
		CreatedAt:  m.CreatedAt,
	}
}

// FromMovements convierte una lista.
func FromMovements(list []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromMovement(m))
	}
	return out
}

// FromHolderBalances convierte el desglose por holder.
func FromHolderBalances(list []ledger.HolderBalance) []HolderBalanceResponse {
	out := make([]HolderBalanceResponse, 0, len(list))
	for _, h := range list {
		out = append(out, HolderBalanceResponse{HolderID: h.HolderID, Quantity: h.Quantity})
	}
	return out
}
