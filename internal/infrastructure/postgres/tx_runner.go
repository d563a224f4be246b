package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/custodia-api/internal/application/ports"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Fallos de serialización o deadlock (también en el Commit) se devuelven como repository.ErrSerialization.
func (r *TxRunner) Run(ctx context.Context, fn func(tx repository.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		if isSerializationFailure(err) {
			return mapError("transaction", err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

// NewRepos agrupa todos los repositorios sobre q (pool o tx).
func NewRepos(q Querier) repository.Repos {
	return repository.Repos{
		Movements:   NewMovementRepository(q),
		Sales:       NewSaleRepository(q),
		Days:        NewDayRepository(q),
		Shifts:      NewShiftRepository(q),
		Assignments: NewShiftAssignmentRepository(q),
		Events:      NewEventRepository(q),
		Products:    NewProductRepository(q),
		Users:       NewUserRepository(q),
		Locker:      NewAdvisoryLocker(q),
	}
}

// AdvisoryLocker serializa con pg_advisory_xact_lock; el lock se libera en Commit/Rollback.
type AdvisoryLocker struct {
	q Querier
}

// NewAdvisoryLocker construye el locker. Solo tiene efecto dentro de una transacción.
func NewAdvisoryLocker(q Querier) *AdvisoryLocker {
	return &AdvisoryLocker{q: q}
}

// Lock bloquea hasta obtener el lock de la clave (hash de 64 bits del texto).
func (l *AdvisoryLocker) Lock(ctx context.Context, key string) error {
	if _, err := l.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return mapError("advisory lock", err)
	}
	return nil
}
