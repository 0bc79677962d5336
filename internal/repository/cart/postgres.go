package cart

import (
	"context"
	"errors"

	"coffeespot/internal/db"
	"coffeespot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectLine = `
SELECT l.id::text, l.user_id::text, l.product_id::text, l.quantity, l.unit_price_cents, l.price_cents,
       p.id::text, p.title, p.price_cents, p.image_url, l.created_at, l.updated_at
FROM cart_lines l
JOIN products p ON p.id = l.product_id
`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) AddLine(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	const q = `
INSERT INTO cart_lines (user_id, product_id, quantity, unit_price_cents, price_cents)
SELECT $1, p.id, 1, p.price_cents, p.price_cents
FROM products p
WHERE p.id = $2
ON CONFLICT (user_id, product_id) DO UPDATE
SET quantity = cart_lines.quantity + 1,
    unit_price_cents = EXCLUDED.unit_price_cents,
    price_cents = (cart_lines.quantity + 1) * EXCLUDED.unit_price_cents,
    updated_at = now()
RETURNING id::text
`
	var id string
	if err := r.pool.QueryRow(ctx, q, userID, productID).Scan(&id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, db.MapErr(err)
	}
	return r.getLine(ctx, r.pool, `WHERE l.id = $1`, id)
}

func (r *postgresRepo) RemoveLine(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	var out *domain.CartLine
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id string
		var qty int
		err := tx.QueryRow(ctx, `
SELECT id::text, quantity
FROM cart_lines
WHERE user_id = $1 AND product_id = $2
FOR UPDATE
`, userID, productID).Scan(&id, &qty)
		if err != nil {
			return db.MapErr(err)
		}

		if qty <= 1 {
			_, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, id)
			return err
		}
		if _, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = quantity - 1,
    price_cents = (quantity - 1) * unit_price_cents,
    updated_at = now()
WHERE id = $1
`, id); err != nil {
			return err
		}
		out, err = r.getLine(ctx, tx, `WHERE l.id = $1`, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) ClearLine(ctx context.Context, userID, productID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return db.MapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	rows, err := r.pool.Query(ctx, selectLine+`WHERE l.user_id = $1 ORDER BY l.created_at ASC`, userID)
	if err != nil {
		return nil, db.MapErr(err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, rows.Err()
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *postgresRepo) getLine(ctx context.Context, q querier, where string, args ...any) (*domain.CartLine, error) {
	line, err := scanLine(q.QueryRow(ctx, selectLine+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return line, nil
}

func scanLine(row pgx.Row) (*domain.CartLine, error) {
	var l domain.CartLine
	if err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.ProductID,
		&l.Quantity,
		&l.UnitPriceCents,
		&l.PriceCents,
		&l.Product.ID,
		&l.Product.Title,
		&l.Product.PriceCents,
		&l.Product.ImageURL,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}
