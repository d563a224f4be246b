package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, bar_id, sku, name, unit, price, active, created_at, updated_at`

// Create persiste un nuevo producto. (bar, sku) es único.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.BarID, p.SKU, p.Name, p.Unit, p.Price, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	return mapError("insert product", err)
}

// GetByID obtiene un producto del bar por ID.
func (r *ProductRepo) GetByID(ctx context.Context, barID, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE bar_id = $1 AND id = $2`, barID, id).Scan(
		&p.ID, &p.BarID, &p.SKU, &p.Name, &p.Unit, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get product", err)
	}
	return &p, nil
}

// ListByBar lista productos del bar con paginación.
func (r *ProductRepo) ListByBar(ctx context.Context, barID string, limit, offset int) ([]*entity.Product, error) {
	w := &where{}
	w.add("bar_id = ?", barID)
	query := `SELECT ` + productColumns + ` FROM products` + w.String() + ` ORDER BY name, id` + w.page(limit, offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.BarID, &p.SKU, &p.Name, &p.Unit, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, mapError("scan product", err)
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list products", err)
	}
	return list, nil
}
