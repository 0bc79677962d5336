package product

import (
	"context"

	"coffeespot/internal/db"
	"coffeespot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const selectProduct = `
SELECT p.id::text, p.title, p.description, p.price_cents, p.categories, p.stock,
       p.image_key, p.image_url, COALESCE(p.added_by::text, ''), COALESCE(a.user_name, ''),
       p.created_at, p.updated_at
FROM products p
LEFT JOIN admins a ON a.id = p.added_by
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "product").Logger()}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	const q = `
INSERT INTO products (title, description, price_cents, categories, stock, image_key, image_url, added_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid)
RETURNING id::text
`
	var id string
	if err := r.pool.QueryRow(ctx, q,
		in.Title, in.Description, in.PriceCents, in.Categories, in.Stock, in.ImageKey, in.ImageURL, in.AddedBy,
	).Scan(&id); err != nil {
		r.logger.Error().Err(err).Str("title", in.Title).Msg("create")
		return nil, db.MapErr(err)
	}
	r.logger.Debug().Str("id", id).Str("title", in.Title).Msg("created")
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, selectProduct+`WHERE p.id = $1`, id))
	if err != nil {
		return nil, db.MapErr(err)
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, selectProduct+`ORDER BY p.created_at DESC, p.id`)
	if err != nil {
		r.logger.Error().Err(err).Msg("list")
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("list rows")
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, in UpdateInput) (*domain.Product, error) {
	const q = `
UPDATE products SET
    title = COALESCE($2, title),
    description = COALESCE($3, description),
    price_cents = COALESCE($4, price_cents),
    categories = COALESCE($5, categories),
    stock = COALESCE($6, stock),
    image_key = COALESCE($7, image_key),
    image_url = COALESCE($8, image_url),
    updated_at = now()
WHERE id = $1
RETURNING id::text
`
	var categories []string
	if in.Categories != nil {
		categories = in.Categories
	}
	var got string
	err := r.pool.QueryRow(ctx, q, id,
		in.Title, in.Description, in.PriceCents, categories, in.Stock, in.ImageKey, in.ImageURL,
	).Scan(&got)
	if err != nil {
		return nil, db.MapErr(err)
	}
	return r.GetByID(ctx, got)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) (*domain.Product, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, domain.Conflict("product.delete", "product %s is referenced by existing orders", id)
		}
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	r.logger.Info().Str("id", id).Msg("deleted")
	return p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (title, description, price_cents, categories, stock, image_url, added_by)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid)
ON CONFLICT ((lower(title))) DO UPDATE SET
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    categories = EXCLUDED.categories,
    stock = EXCLUDED.stock,
    image_url = CASE WHEN EXCLUDED.image_url = '' THEN products.image_url ELSE EXCLUDED.image_url END,
    updated_at = now()
RETURNING id::text
`
	var id string
	if err := r.pool.QueryRow(ctx, q,
		p.Title, p.Description, p.PriceCents, p.Categories, p.Stock, p.ImageURL, p.AddedBy,
	).Scan(&id); err != nil {
		r.logger.Error().Err(err).Str("title", p.Title).Msg("upsert")
		return nil, db.MapErr(err)
	}
	return r.GetByID(ctx, id)
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.PriceCents,
		&p.Categories,
		&p.Stock,
		&p.ImageKey,
		&p.ImageURL,
		&p.AddedBy,
		&p.AddedByName,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	return &p, nil
}
