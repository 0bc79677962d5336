package admin

import (
	"context"
	"strings"

	"coffeespot/internal/db"
	"coffeespot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const adminColumns = `id::text, user_name, email, password_hash, profile_picture, is_support_agent, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, a domain.Admin) (*domain.Admin, error) {
	q := `
INSERT INTO admins (user_name, email, password_hash, profile_picture, is_support_agent)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + adminColumns
	return scanAdmin(r.pool.QueryRow(ctx, q,
		a.UserName, strings.ToLower(strings.TrimSpace(a.Email)), a.PasswordHash, a.ProfilePicture, a.IsSupportAgent,
	))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
}

func (r *postgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM admins`).Scan(&n)
	return n, err
}

func (r *postgresRepo) SetPassword(ctx context.Context, id, hash string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE admins SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return db.MapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAdmin(row pgx.Row) (*domain.Admin, error) {
	var a domain.Admin
	if err := row.Scan(&a.ID, &a.UserName, &a.Email, &a.PasswordHash, &a.ProfilePicture, &a.IsSupportAgent, &a.CreatedAt); err != nil {
		return nil, db.MapErr(err)
	}
	return &a, nil
}
