package repository

import (
	"context"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// UserRepository puerto de persistencia para User (personal del bar).
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, barID, id string) (*entity.User, error)
	// FindByPhone usado por login; el teléfono es único globalmente.
	FindByPhone(ctx context.Context, phone string) (*entity.User, error)
	ListByBar(ctx context.Context, barID string, limit, offset int) ([]*entity.User, error)
}
