package custody

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
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/jhoicas/custodia-api/pkg/logger"
)

// UseCase máquina de estados de custodia: valida y agrega movimientos
// (delivery, allocation, assignment, return, adjustment/damage/loss).
// Cada operación exitosa escribe exactamente un Movement y un Event en la misma transacción.
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
		log:      logger.OrNop(log).Named("custody"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MovementResult movimiento escrito (o repetido por dedup id).
type MovementResult struct {
	Movement *entity.Movement
	Replayed bool
}

// DeliveryInput entrada de stock al bar.
type DeliveryInput struct {
	ProductID string
	Quantity  int64
	Reason    string // opcional: remisión, proveedor...
}

// AllocateInput stock del bar → bartender.
type AllocateInput struct {
	ProductID   string
	BartenderID string
	Quantity    int64
}

// AssignInput bartender (actor) → server.
type AssignInput struct {
	ProductID string
	ServerID  string
	Quantity  int64
}

// ReturnInput devolución de custodia. FromHolderID vacío = el propio actor;
// ToHolderID nil = de vuelta al stock del bar.
type ReturnInput struct {
	ProductID    string
	FromHolderID string
	ToHolderID   *string
	Quantity     int64
	Reason       string
}

// AdjustInput ajuste/daño/pérdida sobre el stock del bar.
// Para adjustment Quantity lleva signo (delta); para damage/loss debe ser positiva.
type AdjustInput struct {
	Type      entity.MovementType
	ProductID string
	Quantity  int64
	Reason    string
}

// movementPlan describe qué validar dentro de la transacción antes de agregar m.
type movementPlan struct {
	op           string
	movement     *entity.Movement
	shiftNeeded  bool
	shiftStates  []entity.ShiftStatus
	holderChecks []holderCheck
	debit        *ledger.Scope // saldo que la operación reduce
}

type holderCheck struct {
	userID string
	roles  []string
}

// RecordDelivery registra stock entrante al bar (owner/manager).
func (uc *UseCase) RecordDelivery(ctx context.Context, actor entity.Actor, in DeliveryInput) (*MovementResult, error) {
	if err := guard.Role(actor, "recordDelivery", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	m, err := entity.NewDelivery(uc.movementInput(actor, in.ProductID, in.Quantity, in.Reason))
	if err != nil {
		return nil, err
	}
	return uc.apply(ctx, actor, movementPlan{
		op:          "recordDelivery",
		movement:    m,
		shiftStates: []entity.ShiftStatus{entity.ShiftOpen, entity.ShiftClosing},
	})
}

// Allocate mueve stock del bar a la custodia de un bartender (owner/manager).
func (uc *UseCase) Allocate(ctx context.Context, actor entity.Actor, in AllocateInput) (*MovementResult, error) {
	if err := guard.Role(actor, "allocate", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	m, err := entity.NewAllocation(uc.movementInput(actor, in.ProductID, in.Quantity, ""), in.BartenderID)
	if err != nil {
		return nil, err
	}
	return uc.apply(ctx, actor, movementPlan{
		op:           "allocate",
		movement:     m,
		shiftStates:  []entity.ShiftStatus{entity.ShiftOpen, entity.ShiftClosing},
		holderChecks: []holderCheck{{userID: in.BartenderID, roles: []string{entity.RoleBartender}}},
		debit:        &ledger.Scope{BarID: actor.BarID, ProductID: in.ProductID},
	})
}

// Assign el bartender (actor) entrega stock a un server. Requiere turno abierto.
func (uc *UseCase) Assign(ctx context.Context, actor entity.Actor, in AssignInput) (*MovementResult, error) {
	if err := guard.Role(actor, "assign", entity.RoleBartender); err != nil {
		return nil, err
	}
	if in.ServerID == actor.UserID {
		return nil, domain.Forbidden("un bartender no puede asignarse stock a sí mismo")
	}
	m, err := entity.NewAssignment(uc.movementInput(actor, in.ProductID, in.Quantity, ""), actor.UserID, in.ServerID)
	if err != nil {
		return nil, err
	}
	holder := actor.UserID
	return uc.apply(ctx, actor, movementPlan{
		op:           "assign",
		movement:     m,
		shiftNeeded:  true,
		shiftStates:  []entity.ShiftStatus{entity.ShiftOpen},
		holderChecks: []holderCheck{{userID: in.ServerID, roles: []string{entity.RoleServer}}},
		debit:        &ledger.Scope{BarID: actor.BarID, ProductID: in.ProductID, Holder: &holder},
	})
}

// ReturnStock devuelve custodia a un bartender o al stock del bar.
// Lo ejecuta el propio holder o un owner/manager.
func (uc *UseCase) ReturnStock(ctx context.Context, actor entity.Actor, in ReturnInput) (*MovementResult, error) {
	from := in.FromHolderID
	if from == "" {
		from = actor.UserID
	}
	if from != actor.UserID && !entity.IsManagement(actor.Role) {
		return nil, domain.Forbidden("solo el holder o un owner/manager puede devolver su custodia")
	}
	if actor.UserID == "" || actor.BarID == "" {
		return nil, domain.Forbidden("actor sin usuario o bar")
	}

	base := uc.movementInput(actor, in.ProductID, in.Quantity, in.Reason)
	var (
		m      *entity.Movement
		err    error
		checks = []holderCheck{{userID: from, roles: []string{entity.RoleBartender, entity.RoleServer}}}
	)
	if in.ToHolderID == nil || *in.ToHolderID == "" {
		m, err = entity.NewReturnToStock(base, from)
	} else {
		m, err = entity.NewReturn(base, from, *in.ToHolderID)
		checks = append(checks, holderCheck{userID: *in.ToHolderID, roles: []string{entity.RoleBartender}})
	}
	if err != nil {
		return nil, err
	}
	return uc.apply(ctx, actor, movementPlan{
		op:           "returnStock",
		movement:     m,
		shiftStates:  []entity.ShiftStatus{entity.ShiftOpen, entity.ShiftClosing},
		holderChecks: checks,
		debit:        &ledger.Scope{BarID: actor.BarID, ProductID: in.ProductID, Holder: &from},
	})
}

// Adjust registra adjustment, damage o loss sobre el stock del bar (owner/manager).
// Un ajuste negativo, daño o pérdida no puede dejar el stock del bar bajo cero.
func (uc *UseCase) Adjust(ctx context.Context, actor entity.Actor, in AdjustInput) (*MovementResult, error) {
	if err := guard.Role(actor, "adjust", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	base := uc.movementInput(actor, in.ProductID, in.Quantity, in.Reason)
	var (
		m   *entity.Movement
		err error
	)
	switch in.Type {
	case entity.MovementAdjustment:
		m, err = entity.NewAdjustment(base, in.Quantity)
	case entity.MovementDamage:
		m, err = entity.NewDamage(base)
	case entity.MovementLoss:
		m, err = entity.NewLoss(base)
	default:
		return nil, domain.Validation("tipo de ajuste inválido: %q", in.Type)
	}
	if err != nil {
		return nil, err
	}
	plan := movementPlan{
		op:          "adjust",
		movement:    m,
		shiftStates: []entity.ShiftStatus{entity.ShiftOpen, entity.ShiftClosing},
	}
	if m.BarDelta() < 0 {
		plan.debit = &ledger.Scope{BarID: actor.BarID, ProductID: in.ProductID}
	}
	return uc.apply(ctx, actor, plan)
}

func (uc *UseCase) movementInput(actor entity.Actor, productID string, qty int64, reason string) entity.MovementInput {
	return entity.MovementInput{
		BarID:     actor.BarID,
		ProductID: productID,
		Quantity:  qty,
		Reason:    reason,
		Actor:     actor,
		Now:       uc.now(),
	}
}

// apply ejecuta el plan en una transacción:
// lock (bar, producto) → dedup → producto → ventana → holders → saldo → Movement + Event.
func (uc *UseCase) apply(ctx context.Context, actor entity.Actor, plan movementPlan) (*MovementResult, error) {
	m := plan.movement
	var result *MovementResult
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		// 1. Serializa por (bar, producto): el chequeo de saldo y la escritura no se intercalan
		if err := tx.Locker.Lock(ctx, repository.StockLockKey(m.BarID, m.ProductID)); err != nil {
			return err
		}

		// 2. Reintento con el mismo dedup id: devolver el movimiento original
		if m.DedupID != nil {
			prev, err := tx.Movements.GetByDedup(ctx, m.BarID, *m.DedupID)
			if err != nil {
				return err
			}
			if prev != nil {
				if prev.Type != m.Type || prev.ProductID != m.ProductID || prev.Quantity != m.Quantity {
					return domain.Conflict("dedup id reutilizado con una operación distinta").With("dedup_id", *m.DedupID)
				}
				result = &MovementResult{Movement: prev, Replayed: true}
				return nil
			}
		}

		if _, err := guard.Product(ctx, tx.Products, m.BarID, m.ProductID); err != nil {
			return err
		}
		if _, err := guard.Shift(ctx, tx.Shifts, actor, plan.shiftNeeded, plan.shiftStates...); err != nil {
			return err
		}
		for _, hc := range plan.holderChecks {
			if _, err := guard.Holder(ctx, tx.Users, m.BarID, hc.userID, hc.roles...); err != nil {
				return err
			}
		}

		// 3. Saldo suficiente antes de agregar
		if plan.debit != nil {
			available, err := tx.Movements.Balance(ctx, *plan.debit)
			if err != nil {
				return err
			}
			if !ledger.Sufficient(available, m.Quantity) {
				return domain.InsufficientBalance(available, m.Quantity)
			}
		}

		// 4. Movement + Event
		if err := tx.Movements.Create(ctx, m); err != nil {
			return err
		}
		if _, err := audit.Record(ctx, tx.Events, actor, audit.Entry{
			Type:       "movement." + string(m.Type),
			EntityType: entity.EntityMovement,
			EntityID:   m.ID,
			Payload:    audit.MovementPayload(m),
		}, m.CreatedAt); err != nil {
			return err
		}
		result = &MovementResult{Movement: m}
		return nil
	})
	if err != nil {
		err = classify(err)
		uc.log.Warn().Err(err).
			Str("op", plan.op).
			Str("bar_id", actor.BarID).
			Str("actor_id", actor.UserID).
			Str("product_id", m.ProductID).
			Msg("movimiento rechazado")
		return nil, err
	}
	uc.log.Info().
		Str("op", plan.op).
		Str("bar_id", actor.BarID).
		Str("actor_id", actor.UserID).
		Str("movement_id", result.Movement.ID).
		Bool("replayed", result.Replayed).
		Msg("movimiento registrado")
	return result, nil
}

// classify además trata un dedup duplicado (carrera entre reintentos) como conflicto.
func classify(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return domain.Conflict("dedup id ya utilizado por una escritura concurrente")
	}
	return guard.Classify(err)
}
