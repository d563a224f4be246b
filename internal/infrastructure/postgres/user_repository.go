package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL (pool o tx).
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, bar_id, name, phone, password_hash, role, status, created_at, updated_at`

// Create persiste un nuevo usuario. El teléfono es único.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	_, err := r.q.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.BarID, u.Name, u.Phone, u.PasswordHash, u.Role, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	return mapError("insert user", err)
}

// GetByID obtiene un usuario del bar por ID.
func (r *UserRepo) GetByID(ctx context.Context, barID, id string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE bar_id = $1 AND id = $2`, barID, id)
}

// FindByPhone obtiene un usuario por teléfono (cualquier bar); usado por login.
func (r *UserRepo) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
}

func (r *UserRepo) findOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get user", err)
	}
	return u, nil
}

// ListByBar personal del bar.
func (r *UserRepo) ListByBar(ctx context.Context, barID string, limit, offset int) ([]*entity.User, error) {
	w := &where{}
	w.add("bar_id = ?", barID)
	query := `SELECT ` + userColumns + ` FROM users` + w.String() + ` ORDER BY name, id` + w.page(limit, offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError("list users", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError("scan user", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list users", err)
	}
	return list, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.BarID, &u.Name, &u.Phone, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
