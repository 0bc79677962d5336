package token

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Revoke(ctx context.Context, rev Revocation) error {
	const q = `
INSERT INTO revoked_tokens (jti, subject, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (jti) DO NOTHING
`
	_, err := r.pool.Exec(ctx, q, rev.TokenID, rev.Subject, rev.ExpiresAt)
	return err
}

func (r *postgresRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`, tokenID).Scan(&revoked)
	return revoked, err
}

func (r *postgresRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
