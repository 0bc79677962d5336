package user

import (
	"context"
	"strings"

	"coffeespot/internal/db"
	"coffeespot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const userColumns = `
id::text, user_name, email, phone, password_hash, address, profile_picture, picture_key,
last_active_at, created_at, updated_at
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "user").Logger()}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	q := `
INSERT INTO users (user_name, email, phone, password_hash, address, profile_picture, picture_key)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns
	return r.scanUser(r.pool.QueryRow(ctx, q,
		u.UserName,
		strings.ToLower(strings.TrimSpace(u.Email)),
		strings.TrimSpace(u.Phone),
		u.PasswordHash,
		u.Address,
		u.ProfilePicture,
		u.PictureKey,
	))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *postgresRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, strings.TrimSpace(phone)))
}

func (r *postgresRepo) FindByEmail(ctx context.Context, fragment string) ([]domain.User, error) {
	q := `SELECT ` + userColumns + `
FROM users
WHERE $1 = '' OR email ILIKE '%' || $1 || '%'
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, strings.ToLower(strings.TrimSpace(fragment)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, id string, in UpdateInput) (*domain.User, error) {
	q := `
UPDATE users SET
    user_name = COALESCE($2, user_name),
    address = COALESCE($3, address),
    profile_picture = COALESCE($4, profile_picture),
    picture_key = COALESCE($5, picture_key),
    updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	return r.scanUser(r.pool.QueryRow(ctx, q, id, in.UserName, in.Address, in.ProfilePicture, in.PictureKey))
}

func (r *postgresRepo) SetPassword(ctx context.Context, id, hash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (r *postgresRepo) TouchLastActive(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE users SET last_active_at = now() WHERE id = $1`, id)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *postgresRepo) execOne(ctx context.Context, q string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return db.MapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.UserName,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.Address,
		&u.ProfilePicture,
		&u.PictureKey,
		&u.LastActiveAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		mapped := db.MapErr(err)
		if mapped == err {
			r.logger.Error().Err(err).Msg("scan")
		}
		return nil, mapped
	}
	return &u, nil
}
