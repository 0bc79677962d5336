package review

import (
	"context"

	"coffeespot/internal/db"
	"coffeespot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectReview = `
SELECT r.id::text, r.user_id::text, u.user_name, u.email, u.profile_picture, r.comment, r.rating, r.created_at
FROM reviews r
JOIN users u ON u.id = r.user_id
`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, userID, comment string, rating int) (*domain.Review, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
INSERT INTO reviews (user_id, comment, rating) VALUES ($1, $2, $3)
RETURNING id::text
`, userID, comment, rating).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, db.MapErr(err)
	}
	rev, err := scanReview(r.pool.QueryRow(ctx, selectReview+`WHERE r.id = $1`, id))
	if err != nil {
		return nil, db.MapErr(err)
	}
	return rev, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, selectReview+`ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rev)
	}
	return reviews, rows.Err()
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rev domain.Review
	if err := row.Scan(
		&rev.ID, &rev.UserID, &rev.User.UserName, &rev.User.Email, &rev.User.ProfilePicture,
		&rev.Comment, &rev.Rating, &rev.CreatedAt,
	); err != nil {
		return nil, err
	}
	rev.User.ID = rev.UserID
	return &rev, nil
}
