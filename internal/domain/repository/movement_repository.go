package repository

import (
	"context"
	"time"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/ledger"
)

// MovementFilter filtros para listar el libro de movimientos de un bar.
type MovementFilter struct {
	BarID     string
	ProductID string
	HolderID  *string // movimientos donde el holder es origen o destino
	ShiftID   *string
	Types     []entity.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// MovementRepository puerto del libro append-only. No existe Update ni Delete.
type MovementRepository interface {
	// Create agrega un movimiento. ErrDuplicate si el dedup id ya existe en el bar.
	Create(ctx context.Context, m *entity.Movement) error
	GetByID(ctx context.Context, barID, id string) (*entity.Movement, error)
	GetByDedup(ctx context.Context, barID, dedupID string) (*entity.Movement, error)
	// Balance saldo derivado del libro para el scope (ver ledger.Balance).
	Balance(ctx context.Context, scope ledger.Scope) (int64, error)
	// ListByProduct todos los movimientos de un bar+producto en orden cronológico.
	ListByProduct(ctx context.Context, barID, productID string) ([]*entity.Movement, error)
	List(ctx context.Context, f MovementFilter) ([]*entity.Movement, error)
}
