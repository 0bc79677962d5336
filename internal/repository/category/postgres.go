package category

import (
	"context"

	"coffeespot/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT tag, count(*)
FROM products, unnest(categories) AS tag
GROUP BY tag
ORDER BY tag ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.Name, &c.ProductCount); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
