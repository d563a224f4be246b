package sales

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/custodia-api/internal/application/audit"
	"github.com/jhoicas/custodia-api/internal/application/guard"
	"github.com/jhoicas/custodia-api/internal/application/ports"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/ledger"
	"github.com/jhoicas/custodia-api/internal/domain/lifecycle"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/jhoicas/custodia-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// UseCase ciclo de vida de ventas acoplado a la transferencia de custodia.
// Estados: pending → collected → confirmed, con disputed y reversed (ver lifecycle.Sales).
type UseCase struct {
	txRunner ports.TxRunner
	repos    repository.Repos
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso. repos se usa para consultas fuera de transacción.
func NewUseCase(txRunner ports.TxRunner, repos repository.Repos, log *logger.Logger) *UseCase {
	return &UseCase{
		txRunner: txRunner,
		repos:    repos,
		log:      logger.OrNop(log).Named("sales"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSaleInput venta de Quantity unidades entregadas al server.
// UnitPrice nil = precio por defecto del producto.
type CreateSaleInput struct {
	ProductID string
	ServerID  string
	Quantity  int64
	UnitPrice *decimal.Decimal
}

// SaleResult venta tras la operación y el movimiento que la acompañó, si hubo.
type SaleResult struct {
	Sale     *entity.Sale
	Movement *entity.Movement
	Replayed bool
}

// CreateSale el bartender con turno abierto vende y entrega stock a un server.
// Sale(pending) y Movement(assignment bartender→server) se escriben en una sola transacción.
func (uc *UseCase) CreateSale(ctx context.Context, actor entity.Actor, in CreateSaleInput) (*SaleResult, error) {
	if err := guard.Role(actor, "createSale", entity.RoleBartender); err != nil {
		return nil, err
	}
	if in.ServerID == actor.UserID {
		return nil, domain.Forbidden("un bartender no puede venderse a sí mismo")
	}
	if actor.ShiftID == nil || *actor.ShiftID == "" {
		return nil, domain.Precondition(domain.CodeWindowClosed, "la venta requiere un turno abierto")
	}
	if in.UnitPrice != nil {
		if err := entity.CheckPrice("unit_price", *in.UnitPrice); err != nil {
			return nil, err
		}
	}
	now := uc.now()
	// La idempotencia la lleva la venta; el movimiento emparejado no repite el dedup id.
	movActor := actor
	movActor.DedupID = ""
	m, err := entity.NewAssignment(entity.MovementInput{
		BarID:     actor.BarID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Actor:     movActor,
		Now:       now,
	}, actor.UserID, in.ServerID)
	if err != nil {
		return nil, err
	}

	var result *SaleResult
	err = uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		// 1. Serializa por (bar, producto)
		if err := tx.Locker.Lock(ctx, repository.StockLockKey(actor.BarID, in.ProductID)); err != nil {
			return err
		}

		// 2. Reintento: devolver la venta original
		if dedup := actor.DedupRef(); dedup != nil {
			prev, err := tx.Sales.GetByDedup(ctx, actor.BarID, *dedup)
			if err != nil {
				return err
			}
			if prev != nil {
				if prev.ProductID != in.ProductID || prev.Quantity != in.Quantity || prev.ServerID != in.ServerID {
					return domain.Conflict("dedup id reutilizado con una venta distinta").With("dedup_id", *dedup)
				}
				mov, err := tx.Movements.GetByID(ctx, actor.BarID, prev.MovementID)
				if err != nil {
					return err
				}
				result = &SaleResult{Sale: prev, Movement: mov, Replayed: true}
				return nil
			}
		}

		// 3. Ventana: turno abierto y bartender asignado
		shift, err := guard.Shift(ctx, tx.Shifts, actor, true, entity.ShiftOpen)
		if err != nil {
			return err
		}
		if err := guard.Assigned(ctx, tx.Assignments, actor.BarID, shift.ID, actor.UserID); err != nil {
			return err
		}

		// 4. Producto, server y precio
		product, err := guard.Product(ctx, tx.Products, actor.BarID, in.ProductID)
		if err != nil {
			return err
		}
		if _, err := guard.Holder(ctx, tx.Users, actor.BarID, in.ServerID, entity.RoleServer); err != nil {
			return err
		}
		unitPrice := product.Price
		if in.UnitPrice != nil {
			unitPrice = *in.UnitPrice
		}
		sale, err := entity.NewSale(actor.BarID, shift.ID, product.ID, actor.UserID, in.ServerID, in.Quantity, unitPrice, now)
		if err != nil {
			return err
		}
		sale.DedupID = actor.DedupRef()

		// 5. Custodia del bartender suficiente
		holder := actor.UserID
		available, err := tx.Movements.Balance(ctx, ledger.Scope{BarID: actor.BarID, ProductID: product.ID, Holder: &holder})
		if err != nil {
			return err
		}
		if !ledger.Sufficient(available, in.Quantity) {
			return domain.InsufficientBalance(available, in.Quantity)
		}

		// 6. Escritura emparejada + evento
		if err := tx.Movements.Create(ctx, m); err != nil {
			return err
		}
		sale.MovementID = m.ID
		if err := tx.Sales.Create(ctx, sale); err != nil {
			return err
		}
		if _, err := audit.Record(ctx, tx.Events, actor, audit.Entry{
			Type:       "sale.created",
			EntityType: entity.EntitySale,
			EntityID:   sale.ID,
			Payload: map[string]any{
				"product_id":   sale.ProductID,
				"quantity":     sale.Quantity,
				"unit_price":   sale.UnitPrice.String(),
				"total_price":  sale.TotalPrice.String(),
				"server_id":    sale.ServerID,
				"bartender_id": sale.BartenderID,
				"movement_id":  m.ID,
			},
		}, now); err != nil {
			return err
		}
		result = &SaleResult{Sale: sale, Movement: m}
		return nil
	})
	if err != nil {
		return nil, uc.reject("createSale", actor, "", err)
	}
	uc.log.Info().
		Str("bar_id", actor.BarID).
		Str("sale_id", result.Sale.ID).
		Str("movement_id", result.Sale.MovementID).
		Bool("replayed", result.Replayed).
		Msg("venta creada")
	return result, nil
}

// CollectSaleInput cobro del server.
type CollectSaleInput struct {
	Amount        decimal.Decimal
	PaymentMethod string
}

// CollectSale solo el server asignado; pending → collected.
func (uc *UseCase) CollectSale(ctx context.Context, actor entity.Actor, saleID string, in CollectSaleInput) (*SaleResult, error) {
	if err := guard.Role(actor, "collectSale", entity.RoleServer); err != nil {
		return nil, err
	}
	if err := entity.CheckAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	if !entity.ValidPaymentMethod(in.PaymentMethod) {
		return nil, domain.Validation("método de pago inválido: %q", in.PaymentMethod)
	}
	return uc.transition(ctx, actor, "collectSale", saleID, entity.SaleCollected,
		func(_ repository.Repos, s *entity.Sale, now time.Time) (map[string]any, error) {
			if s.ServerID != actor.UserID {
				return nil, domain.Forbidden("solo el server asignado puede cobrar la venta")
			}
			amount := in.Amount
			s.CollectedAmount = &amount
			s.PaymentMethod = in.PaymentMethod
			s.CollectedBy = &actor.UserID
			s.CollectedAt = &now
			return map[string]any{"amount": amount.String(), "payment_method": in.PaymentMethod}, nil
		})
}

// ConfirmSale owner/manager/bartender; collected|disputed → confirmed (terminal).
func (uc *UseCase) ConfirmSale(ctx context.Context, actor entity.Actor, saleID string) (*SaleResult, error) {
	if err := guard.Role(actor, "confirmSale", entity.RoleOwner, entity.RoleManager, entity.RoleBartender); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, "confirmSale", saleID, entity.SaleConfirmed,
		func(_ repository.Repos, s *entity.Sale, now time.Time) (map[string]any, error) {
			if err := ownSale(actor, s); err != nil {
				return nil, err
			}
			s.ConfirmedBy = &actor.UserID
			s.ConfirmedAt = &now
			return nil, nil
		})
}

// DisputeSale owner/manager/bartender; collected → disputed. Requiere motivo.
func (uc *UseCase) DisputeSale(ctx context.Context, actor entity.Actor, saleID, reason string) (*SaleResult, error) {
	if err := guard.Role(actor, "disputeSale", entity.RoleOwner, entity.RoleManager, entity.RoleBartender); err != nil {
		return nil, err
	}
	if err := guard.Reason(reason); err != nil {
		return nil, err
	}
	reason = entity.NormalizeReason(reason)
	return uc.transition(ctx, actor, "disputeSale", saleID, entity.SaleDisputed,
		func(_ repository.Repos, s *entity.Sale, now time.Time) (map[string]any, error) {
			if err := ownSale(actor, s); err != nil {
				return nil, err
			}
			s.DisputedBy = &actor.UserID
			s.DisputedAt = &now
			s.DisputeReason = reason
			return map[string]any{"reason": reason}, nil
		})
}

// ReverseSale owner/manager/bartender; pending|collected|disputed → reversed (terminal).
// Agrega un movimiento return server→bartender por la cantidad original.
func (uc *UseCase) ReverseSale(ctx context.Context, actor entity.Actor, saleID, reason string) (*SaleResult, error) {
	if err := guard.Role(actor, "reverseSale", entity.RoleOwner, entity.RoleManager, entity.RoleBartender); err != nil {
		return nil, err
	}
	if err := guard.Reason(reason); err != nil {
		return nil, err
	}
	reason = entity.NormalizeReason(reason)
	return uc.transition(ctx, actor, "reverseSale", saleID, entity.SaleReversed,
		func(tx repository.Repos, s *entity.Sale, now time.Time) (map[string]any, error) {
			if err := ownSale(actor, s); err != nil {
				return nil, err
			}
			if err := tx.Locker.Lock(ctx, repository.StockLockKey(s.BarID, s.ProductID)); err != nil {
				return nil, err
			}
			server := s.ServerID
			held, err := tx.Movements.Balance(ctx, ledger.Scope{BarID: s.BarID, ProductID: s.ProductID, Holder: &server})
			if err != nil {
				return nil, err
			}
			if !ledger.Sufficient(held, s.Quantity) {
				return nil, domain.InsufficientBalance(held, s.Quantity).With("holder_id", server)
			}
			movActor := actor
			movActor.DedupID = ""
			m, err := entity.NewReturn(entity.MovementInput{
				BarID:     s.BarID,
				ProductID: s.ProductID,
				Quantity:  s.Quantity,
				Reason:    reason,
				Actor:     movActor,
				Now:       now,
			}, s.ServerID, s.BartenderID)
			if err != nil {
				return nil, err
			}
			if err := tx.Movements.Create(ctx, m); err != nil {
				return nil, err
			}
			s.ReversedBy = &actor.UserID
			s.ReversedAt = &now
			s.ReversalReason = reason
			s.ReversalMoveID = &m.ID
			return map[string]any{"reason": reason, "movement_id": m.ID, "quantity": s.Quantity}, nil
		})
}

// ownSale un bartender solo actúa sobre sus propias ventas; owner/manager sobre todas.
func ownSale(actor entity.Actor, s *entity.Sale) error {
	if actor.Role == entity.RoleBartender && s.BartenderID != actor.UserID {
		return domain.Forbidden("el bartender solo puede operar sus propias ventas").With("sale_id", s.ID)
	}
	return nil
}

type mutateFn func(tx repository.Repos, s *entity.Sale, now time.Time) (map[string]any, error)

// transition bloquea la venta, valida from→to contra la tabla, aplica mutate,
// escribe con compare-and-set sobre el estado y agrega el evento sale.<to>.
func (uc *UseCase) transition(ctx context.Context, actor entity.Actor, op, saleID string, to entity.SaleStatus, mutate mutateFn) (*SaleResult, error) {
	if saleID == "" {
		return nil, domain.Validation("sale_id obligatorio")
	}
	var result *SaleResult
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		s, err := tx.Sales.GetForUpdate(ctx, actor.BarID, saleID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.NotFound("sale", saleID)
		}
		from := s.Status
		if err := lifecycle.Sales.Check(from, to); err != nil {
			return err
		}
		now := uc.now()
		payload, err := mutate(tx, s, now)
		if err != nil {
			return err
		}
		if !s.TotalConsistent() {
			return domain.Internal(errors.New("total de la venta inconsistente"))
		}
		s.Status = to
		s.UpdatedAt = now
		if err := tx.Sales.UpdateStatus(ctx, s, from); err != nil {
			return err
		}
		if payload == nil {
			payload = map[string]any{}
		}
		payload["from"] = string(from)
		payload["to"] = string(to)
		if _, err := audit.Record(ctx, tx.Events, actor, audit.Entry{
			Type:       "sale." + string(to),
			EntityType: entity.EntitySale,
			EntityID:   s.ID,
			Payload:    payload,
		}, now); err != nil {
			return err
		}
		result = &SaleResult{Sale: s}
		if s.ReversalMoveID != nil && to == entity.SaleReversed {
			result.Movement, err = tx.Movements.GetByID(ctx, s.BarID, *s.ReversalMoveID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, uc.reject(op, actor, saleID, err)
	}
	uc.log.Info().
		Str("op", op).
		Str("bar_id", actor.BarID).
		Str("actor_id", actor.UserID).
		Str("sale_id", saleID).
		Str("status", string(to)).
		Msg("venta actualizada")
	return result, nil
}

func (uc *UseCase) reject(op string, actor entity.Actor, saleID string, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		err = domain.Conflict("dedup id ya utilizado por una escritura concurrente")
	} else {
		err = guard.Classify(err)
	}
	uc.log.Warn().Err(err).
		Str("op", op).
		Str("bar_id", actor.BarID).
		Str("actor_id", actor.UserID).
		Str("sale_id", saleID).
		Msg("operación de venta rechazada")
	return err
}
