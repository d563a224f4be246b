package repository

import (
	"context"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// ProductRepository puerto de persistencia para Product (siempre acotado por bar).
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, barID, id string) (*entity.Product, error)
	ListByBar(ctx context.Context, barID string, limit, offset int) ([]*entity.Product, error)
}
