package repository

import (
	"context"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// SaleFilter filtros de listado de ventas.
type SaleFilter struct {
	BarID    string
	ShiftID  string
	ServerID string
	Statuses []entity.SaleStatus
	Limit    int
	Offset   int
}

// SaleRepository puerto de persistencia para Sale.
type SaleRepository interface {
	// Create persiste una venta nueva. ErrDuplicate si el dedup id ya existe en el bar.
	Create(ctx context.Context, s *entity.Sale) error
	GetByID(ctx context.Context, barID, id string) (*entity.Sale, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, barID, id string) (*entity.Sale, error)
	GetByDedup(ctx context.Context, barID, dedupID string) (*entity.Sale, error)
	// UpdateStatus escribe estado y metadatos solo si el estado actual es expected (ErrStaleWrite si no).
	UpdateStatus(ctx context.Context, s *entity.Sale, expected entity.SaleStatus) error
	List(ctx context.Context, f SaleFilter) ([]*entity.Sale, error)
	CountByShift(ctx context.Context, barID, shiftID string, statuses []entity.SaleStatus) (int, error)
}
