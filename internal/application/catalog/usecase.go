// Package catalog administra los productos y el personal de un bar.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/custodia-api/internal/application/audit"
	"github.com/jhoicas/custodia-api/internal/application/dto"
	"github.com/jhoicas/custodia-api/internal/application/guard"
	"github.com/jhoicas/custodia-api/internal/application/ports"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/jhoicas/custodia-api/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// UseCase altas y consultas de productos y personal, siempre acotadas al bar del actor.
type UseCase struct {
	txRunner ports.TxRunner
	repos    repository.Repos
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner ports.TxRunner, repos repository.Repos, log *logger.Logger) *UseCase {
	return &UseCase{
		txRunner: txRunner,
		repos:    repos,
		log:      logger.OrNop(log).Named("catalog"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateProduct crea un producto activo. El SKU es único por bar.
func (uc *UseCase) CreateProduct(ctx context.Context, actor entity.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := guard.Role(actor, "product.create", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" {
		return nil, domain.Validation("sku y name son obligatorios")
	}
	if err := entity.CheckPrice("price", in.Price); err != nil {
		return nil, err
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = "unidad"
	}
	now := uc.now()
	p := &entity.Product{
		ID:        uuid.New().String(),
		BarID:     actor.BarID,
		SKU:       sku,
		Name:      name,
		Unit:      unit,
		Price:     in.Price,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		if err := tx.Products.Create(ctx, p); err != nil {
			return err
		}
		_, err := audit.Record(ctx, tx.Events, actor, audit.Entry{
			Type:       "product.created",
			EntityType: entity.EntityProduct,
			EntityID:   p.ID,
			Payload:    map[string]any{"sku": p.SKU, "name": p.Name, "price": p.Price.String()},
		}, now)
		return err
	})
	if err != nil {
		return nil, uc.reject(actor, "product.create", err, "sku ya registrado en el bar")
	}
	uc.log.Info().Str("bar_id", actor.BarID).Str("actor_id", actor.UserID).Str("product_id", p.ID).Msg("producto creado")
	out := dto.FromProduct(p)
	return &out, nil
}

// GetProduct obtiene un producto del bar del actor.
func (uc *UseCase) GetProduct(ctx context.Context, actor entity.Actor, id string) (*dto.ProductResponse, error) {
	if err := guard.Role(actor, "product.get", anyRole...); err != nil {
		return nil, err
	}
	p, err := uc.repos.Products.GetByID(ctx, actor.BarID, id)
	if err != nil {
		return nil, guard.Classify(err)
	}
	if p == nil {
		return nil, domain.NotFound("product", id)
	}
	out := dto.FromProduct(p)
	return &out, nil
}

// ListProducts lista paginada de productos del bar.
func (uc *UseCase) ListProducts(ctx context.Context, actor entity.Actor, page dto.PageRequest) (*dto.ProductListResponse, error) {
	if err := guard.Role(actor, "product.list", anyRole...); err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.repos.Products.ListByBar(ctx, actor.BarID, page.Limit, page.Offset)
	if err != nil {
		return nil, guard.Classify(err)
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.FromProduct(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// CreateStaff da de alta a un miembro del personal. Solo el owner puede crear owners o managers.
func (uc *UseCase) CreateStaff(ctx context.Context, actor entity.Actor, in dto.CreateStaffRequest) (*dto.UserResponse, error) {
	if err := guard.Role(actor, "staff.create", entity.RoleOwner, entity.RoleManager); err != nil {
		return nil, err
	}
	if !entity.ValidRole(in.Role) {
		return nil, domain.Validation("rol inválido: %q", in.Role)
	}
	if entity.IsManagement(in.Role) && actor.Role != entity.RoleOwner {
		return nil, domain.Forbidden("solo el owner puede crear el rol %q", in.Role)
	}
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	if name == "" || phone == "" {
		return nil, domain.Validation("name y phone son obligatorios")
	}
	if len(in.Password) < 6 {
		return nil, domain.Validation("el password debe tener al menos 6 caracteres")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.Internal(err)
	}
	now := uc.now()
	u := &entity.User{
		ID:           uuid.New().String(),
		BarID:        actor.BarID,
		Name:         name,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         in.Role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = uc.txRunner.Run(ctx, func(tx repository.Repos) error {
		if err := tx.Users.Create(ctx, u); err != nil {
			return err
		}
		_, err := audit.Record(ctx, tx.Events, actor, audit.Entry{
			Type:       "user.created",
			EntityType: entity.EntityUser,
			EntityID:   u.ID,
			Payload:    map[string]any{"name": u.Name, "role": u.Role},
		}, now)
		return err
	})
	if err != nil {
		return nil, uc.reject(actor, "staff.create", err, "teléfono ya registrado")
	}
	uc.log.Info().Str("bar_id", actor.BarID).Str("actor_id", actor.UserID).Str("user_id", u.ID).Str("role", u.Role).Msg("personal creado")
	out := dto.FromUser(u)
	return &out, nil
}

// GetStaff obtiene un miembro del personal del bar.
func (uc *UseCase) GetStaff(ctx context.Context, actor entity.Actor, id string) (*dto.UserResponse, error) {
	if err := guard.Role(actor, "staff.get", anyRole...); err != nil {
		return nil, err
	}
	u, err := uc.repos.Users.GetByID(ctx, actor.BarID, id)
	if err != nil {
		return nil, guard.Classify(err)
	}
	if u == nil {
		return nil, domain.NotFound("user", id)
	}
	out := dto.FromUser(u)
	return &out, nil
}

// ListStaff lista paginada del personal (owner, manager y bartender).
func (uc *UseCase) ListStaff(ctx context.Context, actor entity.Actor, page dto.PageRequest) (*dto.UserListResponse, error) {
	if err := guard.Role(actor, "staff.list", entity.RoleOwner, entity.RoleManager, entity.RoleBartender); err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.repos.Users.ListByBar(ctx, actor.BarID, page.Limit, page.Offset)
	if err != nil {
		return nil, guard.Classify(err)
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, dto.FromUser(u))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

var anyRole = []string{entity.RoleOwner, entity.RoleManager, entity.RoleBartender, entity.RoleServer}

func (uc *UseCase) reject(actor entity.Actor, op string, err error, duplicateMsg string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		err = domain.Duplicate("%s", duplicateMsg)
	} else {
		err = guard.Classify(err)
	}
	uc.log.Warn().Err(err).Str("op", op).Str("bar_id", actor.BarID).Str("actor_id", actor.UserID).Msg("operación rechazada")
	return err
}
