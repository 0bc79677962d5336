package order

import (
	"context"
	"errors"
	"sort"

	"coffeespot/internal/db"
	"coffeespot/internal/domain"
	"coffeespot/internal/repository/outbox"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const selectOrder = `
SELECT o.id::text, o.user_id::text, u.user_name, u.email, u.profile_picture,
       o.shipping_address, o.shipping_fee_cents, o.payment_method, o.total_cents,
       o.status, o.payment_status, o.placed_at, o.updated_at
FROM orders o
JOIN users u ON u.id = o.user_id
`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "order").Logger()}
}

func (r *postgresRepo) Place(ctx context.Context, in PlaceInput) (*domain.Order, error) {
	var placed *domain.Order
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		ids := make([]string, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := lockProducts(ctx, tx, ids)
		if err != nil {
			return err
		}
		for _, it := range in.Items {
			if _, ok := products[it.ProductID]; !ok {
				return domain.NotFound("order.place", "Product %s not found", it.ProductID)
			}
		}
		if in.Check != nil {
			if err := in.Check(products); err != nil {
				return err
			}
		}

		for _, it := range in.Items {
			cmd, err := tx.Exec(ctx, `
UPDATE products SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2
`, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if cmd.RowsAffected() == 0 {
				return domain.Invalid("order.place", "insufficient stock for %s", products[it.ProductID].Title)
			}
		}

		var orderID string
		if err := tx.QueryRow(ctx, `
INSERT INTO orders (user_id, shipping_address, shipping_fee_cents, payment_method, total_cents, status, payment_status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id::text
`, in.UserID, in.ShippingAddress, in.ShippingFeeCents, in.PaymentMethod, in.TotalCents,
			domain.StatusOrderReceived, in.PaymentStatus,
		).Scan(&orderID); err != nil {
			if db.IsForeignKeyViolation(err) {
				return domain.NotFound("order.place", "user %s not found", in.UserID)
			}
			return err
		}

		for i, it := range in.Items {
			if _, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, position, product_id, quantity)
VALUES ($1, $2, $3, $4)
`, orderID, i, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if err := appendHistory(ctx, tx, orderID, domain.StatusOrderReceived, domain.ActorSystem); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = ANY($2)`, in.UserID, ids); err != nil {
			return err
		}

		placed, err = r.load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		return outbox.Append(ctx, tx, orderID, domain.EventOrderPlaced, placed)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	r.logger.Info().Str("order_id", placed.ID).Str("user_id", placed.UserID).Int64("total_cents", placed.TotalCents).Msg("placed")
	return placed, nil
}

func (r *postgresRepo) Transition(ctx context.Context, in TransitionInput) (*domain.Order, error) {
	var out *domain.Order
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockOrder(ctx, tx, in.OrderID); err != nil {
			return err
		}
		current, err := r.load(ctx, tx, in.OrderID)
		if err != nil {
			return err
		}
		if in.Check != nil {
			if err := in.Check(current); err != nil {
				return err
			}
		}

		if in.Target.ReleasesStock() {
			if err := releaseStock(ctx, tx, current.Items); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, in.OrderID, in.Target); err != nil {
			return err
		}
		if err := appendHistory(ctx, tx, in.OrderID, in.Target, in.Actor); err != nil {
			return err
		}

		out, err = r.load(ctx, tx, in.OrderID)
		if err != nil {
			return err
		}
		return outbox.Append(ctx, tx, in.OrderID, domain.EventOrderStatusChanged, out)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	r.logger.Info().Str("order_id", out.ID).Str("status", string(out.Status)).Str("actor", in.Actor).Msg("status changed")
	return out, nil
}

func (r *postgresRepo) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Order, error) {
	var out *domain.Order
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`, id, status)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		out, err = r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		return outbox.Append(ctx, tx, id, domain.EventOrderPaymentUpdated, out)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockOrder(ctx, tx, id); err != nil {
			return err
		}
		current, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if !current.Status.Terminal() {
			if err := releaseStock(ctx, tx, current.Items); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
			return err
		}
		return outbox.Append(ctx, tx, id, domain.EventOrderDeleted, current)
	})
	if err != nil {
		return mapErr(err)
	}
	r.logger.Info().Str("order_id", id).Msg("deleted")
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := r.load(ctx, r.pool, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return o, nil
}

func (r *postgresRepo) List(ctx context.Context, userID string) ([]domain.Order, error) {
	q := selectOrder + `ORDER BY o.placed_at DESC, o.id`
	args := []any{}
	if userID != "" {
		q = selectOrder + `WHERE o.user_id = $1 ORDER BY o.placed_at DESC, o.id`
		args = append(args, userID)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]*domain.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = &orders[i]
	}
	if err := fillItems(ctx, r.pool, ids, index); err != nil {
		return nil, err
	}
	if err := fillHistory(ctx, r.pool, ids, index); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) load(ctx context.Context, q querier, id string) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, selectOrder+`WHERE o.id = $1`, id))
	if err != nil {
		return nil, err
	}
	index := map[string]*domain.Order{o.ID: o}
	if err := fillItems(ctx, q, []string{o.ID}, index); err != nil {
		return nil, err
	}
	if err := fillHistory(ctx, q, []string{o.ID}, index); err != nil {
		return nil, err
	}
	return o, nil
}

func lockOrder(ctx context.Context, tx pgx.Tx, id string) error {
	var got string
	return tx.QueryRow(ctx, `SELECT id::text FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&got)
}

// lockProducts locks rows in id order so concurrent checkouts cannot deadlock.
func lockProducts(ctx context.Context, tx pgx.Tx, ids []string) (map[string]domain.Product, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	rows, err := tx.Query(ctx, `
SELECT id::text, title, price_cents, stock, image_url
FROM products
WHERE id = ANY($1::uuid[])
ORDER BY id
FOR UPDATE
`, sorted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.PriceCents, &p.Stock, &p.ImageURL); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func releaseStock(ctx context.Context, tx pgx.Tx, items []domain.OrderItem) error {
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
UPDATE products SET stock = stock + $2, updated_at = now()
WHERE id = $1
`, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func appendHistory(ctx context.Context, tx pgx.Tx, orderID string, status domain.OrderStatus, actor string) error {
	_, err := tx.Exec(ctx, `
INSERT INTO order_status_history (order_id, status, changed_by)
VALUES ($1, $2, $3)
`, orderID, status, actor)
	return err
}

func fillItems(ctx context.Context, q querier, ids []string, index map[string]*domain.Order) error {
	rows, err := q.Query(ctx, `
SELECT i.order_id::text, i.product_id::text, i.quantity, p.title, p.price_cents, p.image_url
FROM order_items i
JOIN products p ON p.id = i.product_id
WHERE i.order_id = ANY($1::uuid[])
ORDER BY i.order_id, i.position
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var it domain.OrderItem
		var p domain.ProductSummary
		if err := rows.Scan(&orderID, &it.ProductID, &it.Quantity, &p.Title, &p.PriceCents, &p.ImageURL); err != nil {
			return err
		}
		p.ID = it.ProductID
		it.Product = &p
		if o, ok := index[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func fillHistory(ctx context.Context, q querier, ids []string, index map[string]*domain.Order) error {
	rows, err := q.Query(ctx, `
SELECT order_id::text, status, changed_by, changed_at
FROM order_status_history
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, id
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var h domain.StatusChange
		if err := rows.Scan(&orderID, &h.Status, &h.ChangedBy, &h.ChangedAt); err != nil {
			return err
		}
		if o, ok := index[orderID]; ok {
			o.StatusHistory = append(o.StatusHistory, h)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	u := &domain.UserSummary{}
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&u.UserName,
		&u.Email,
		&u.ProfilePicture,
		&o.ShippingAddress,
		&o.ShippingFeeCents,
		&o.PaymentMethod,
		&o.TotalCents,
		&o.Status,
		&o.PaymentStatus,
		&o.PlacedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.ID = o.UserID
	o.User = u
	o.Items = []domain.OrderItem{}
	o.StatusHistory = []domain.StatusChange{}
	return &o, nil
}

// mapErr keeps coded domain errors and translates driver errors.
func mapErr(err error) error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return err
	}
	return db.MapErr(err)
}
