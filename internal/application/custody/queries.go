package custody

import (
	"context"
	"time"

	"github.com/jhoicas/custodia-api/internal/application/guard"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/ledger"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

// BalanceView saldo de un producto: del bar (HolderID nil) o de un holder.
type BalanceView struct {
	ProductID string
	HolderID  *string
	Quantity  int64
}

// StockBalance saldo disponible del bar o custodia de un holder.
// Un server solo puede consultar su propia custodia.
func (uc *UseCase) StockBalance(ctx context.Context, actor entity.Actor, productID string, holderID *string) (*BalanceView, error) {
	if err := guard.Role(actor, "stockBalance", entity.RoleOwner, entity.RoleManager, entity.RoleBartender, entity.RoleServer); err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleServer && (holderID == nil || *holderID != actor.UserID) {
		return nil, domain.Forbidden("un server solo puede consultar su propia custodia")
	}
	if _, err := guard.Product(ctx, uc.repos.Products, actor.BarID, productID); err != nil {
		return nil, guard.Classify(err)
	}
	qty, err := uc.repos.Movements.Balance(ctx, ledger.Scope{BarID: actor.BarID, ProductID: productID, Holder: holderID})
	if err != nil {
		return nil, guard.Classify(err)
	}
	return &BalanceView{ProductID: productID, HolderID: holderID, Quantity: qty}, nil
}

// ProductCustody reparto completo de un producto: stock del bar + cada holder con saldo.
type ProductCustody struct {
	ProductID string
	Available int64
	Holders   []ledger.HolderBalance
}

// ProductHolders calcula el reparto de custodia de un producto (owner/manager/bartender).
func (uc *UseCase) ProductHolders(ctx context.Context, actor entity.Actor, productID string) (*ProductCustody, error) {
	if err := guard.Role(actor, "productHolders", entity.RoleOwner, entity.RoleManager, entity.RoleBartender); err != nil {
		return nil, err
	}
	if _, err := guard.Product(ctx, uc.repos.Products, actor.BarID, productID); err != nil {
		return nil, guard.Classify(err)
	}
	movements, err := uc.repos.Movements.ListByProduct(ctx, actor.BarID, productID)
	if err != nil {
		return nil, guard.Classify(err)
	}
	return &ProductCustody{
		ProductID: productID,
		Available: ledger.Balance(movements, ledger.Scope{BarID: actor.BarID, ProductID: productID}),
		Holders:   ledger.HolderBalances(movements, actor.BarID, productID),
	}, nil
}

// ListMovementsInput filtros del historial.
type ListMovementsInput struct {
	ProductID string
	HolderID  *string
	ShiftID   *string
	Types     []entity.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// ListMovements historial del libro. Bartender y server solo ven movimientos propios.
func (uc *UseCase) ListMovements(ctx context.Context, actor entity.Actor, in ListMovementsInput) ([]*entity.Movement, error) {
	if err := guard.Role(actor, "listMovements", entity.RoleOwner, entity.RoleManager, entity.RoleBartender, entity.RoleServer); err != nil {
		return nil, err
	}
	for _, t := range in.Types {
		if !t.Valid() {
			return nil, domain.Validation("tipo de movimiento inválido: %q", t)
		}
	}
	holder := in.HolderID
	if !entity.IsManagement(actor.Role) {
		if holder != nil && *holder != actor.UserID {
			return nil, domain.Forbidden("solo puede consultar sus propios movimientos")
		}
		self := actor.UserID
		holder = &self
	}
	limit := repository.PageLimit(in.Limit)
	list, err := uc.repos.Movements.List(ctx, repository.MovementFilter{
		BarID:     actor.BarID,
		ProductID: in.ProductID,
		HolderID:  holder,
		ShiftID:   in.ShiftID,
		Types:     in.Types,
		From:      in.From,
		To:        in.To,
		Limit:     limit,
		Offset:    max(in.Offset, 0),
	})
	if err != nil {
		return nil, guard.Classify(err)
	}
	return list, nil
}
