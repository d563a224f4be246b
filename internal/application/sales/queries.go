package sales

import (
	"context"

	"github.com/jhoicas/custodia-api/internal/application/guard"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/jhoicas/custodia-api/internal/domain/settlement"
)

// GetSale una venta del bar. Un server solo ve las suyas.
func (uc *UseCase) GetSale(ctx context.Context, actor entity.Actor, saleID string) (*entity.Sale, error) {
	if err := guard.Role(actor, "getSale", entity.RoleOwner, entity.RoleManager, entity.RoleBartender, entity.RoleServer); err != nil {
		return nil, err
	}
	s, err := uc.repos.Sales.GetByID(ctx, actor.BarID, saleID)
	if err != nil {
		return nil, guard.Classify(err)
	}
	if s == nil || (actor.Role == entity.RoleServer && s.ServerID != actor.UserID) {
		return nil, domain.NotFound("sale", saleID)
	}
	return s, nil
}

// ListSalesInput filtros; ShiftID obligatorio.
type ListSalesInput struct {
	ShiftID  string
	ServerID string
	Statuses []entity.SaleStatus
	Limit    int
	Offset   int
}

// ListSales ventas de un turno, opcionalmente por estado o server.
func (uc *UseCase) ListSales(ctx context.Context, actor entity.Actor, in ListSalesInput) ([]*entity.Sale, error) {
	if err := guard.Role(actor, "listSales", entity.RoleOwner, entity.RoleManager, entity.RoleBartender, entity.RoleServer); err != nil {
		return nil, err
	}
	if in.ShiftID == "" {
		return nil, domain.Validation("shift_id obligatorio")
	}
	for _, st := range in.Statuses {
		if !validStatus(st) {
			return nil, domain.Validation("estado de venta inválido: %q", st)
		}
	}
	serverID := in.ServerID
	if actor.Role == entity.RoleServer {
		if serverID != "" && serverID != actor.UserID {
			return nil, domain.Forbidden("un server solo puede consultar sus propias ventas")
		}
		serverID = actor.UserID
	}
	limit := repository.PageLimit(in.Limit)
	list, err := uc.repos.Sales.List(ctx, repository.SaleFilter{
		BarID:    actor.BarID,
		ShiftID:  in.ShiftID,
		ServerID: serverID,
		Statuses: in.Statuses,
		Limit:    limit,
		Offset:   max(in.Offset, 0),
	})
	if err != nil {
		return nil, guard.Classify(err)
	}
	return list, nil
}

// ObligationSummary agrega por server los montos del turno (owner/manager/bartender).
func (uc *UseCase) ObligationSummary(ctx context.Context, actor entity.Actor, shiftID string) (*settlement.Summary, error) {
	if err := guard.Role(actor, "obligationSummary", entity.RoleOwner, entity.RoleManager, entity.RoleBartender); err != nil {
		return nil, err
	}
	shift, err := uc.repos.Shifts.GetByID(ctx, actor.BarID, shiftID)
	if err != nil {
		return nil, guard.Classify(err)
	}
	if shift == nil {
		return nil, domain.NotFound("shift", shiftID)
	}
	list, err := uc.repos.Sales.List(ctx, repository.SaleFilter{BarID: actor.BarID, ShiftID: shift.ID})
	if err != nil {
		return nil, guard.Classify(err)
	}
	summary := settlement.Summarize(shift.ID, list)
	return &summary, nil
}

func validStatus(st entity.SaleStatus) bool {
	for _, s := range entity.SaleStatuses {
		if s == st {
			return true
		}
	}
	return false
}
