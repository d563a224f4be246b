package ports

import (
	"context"

	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y no queda ninguna escritura visible; si no, Commit.
// Garantiza la atomicidad de las escrituras emparejadas (Sale+Movement+Event).
type TxRunner interface {
	Run(ctx context.Context, fn func(tx repository.Repos) error) error
}
