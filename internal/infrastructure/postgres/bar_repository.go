package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// BarRepo alta y consulta de bares (tenants). Solo lo usan las herramientas de arranque.
type BarRepo struct {
	q Querier
}

// NewBarRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBarRepository(q Querier) *BarRepo {
	return &BarRepo{q: q}
}

func (r *BarRepo) Create(ctx context.Context, b *entity.Bar) error {
	_, err := r.q.Exec(ctx, `INSERT INTO bars (id, name, timezone, created_at) VALUES ($1, $2, $3, $4)`,
		b.ID, b.Name, b.Timezone, b.CreatedAt)
	return mapError("insert bar", err)
}

func (r *BarRepo) GetByName(ctx context.Context, name string) (*entity.Bar, error) {
	var b entity.Bar
	err := r.q.QueryRow(ctx, `SELECT id, name, timezone, created_at FROM bars WHERE name = $1 ORDER BY created_at LIMIT 1`, name).
		Scan(&b.ID, &b.Name, &b.Timezone, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get bar", err)
	}
	return &b, nil
}
