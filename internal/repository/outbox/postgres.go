package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"coffeespot/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Append records an event in the caller's transaction.
func Append(ctx context.Context, tx pgx.Tx, orderID, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	_, err = tx.Exec(ctx, `
INSERT INTO order_events_outbox (order_id, event_type, payload)
VALUES ($1, $2, $3)
`, orderID, eventType, body)
	return err
}

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) ClaimPending(ctx context.Context, limit int, fn func(events []Event) ([]int64, error)) error {
	var fnErr error
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
SELECT id, order_id::text, event_type, payload, created_at
FROM order_events_outbox
WHERE published_at IS NULL
ORDER BY id
LIMIT $1
FOR UPDATE SKIP LOCKED
`, limit)
		if err != nil {
			return err
		}
		var events []Event
		for rows.Next() {
			var e Event
			if err := rows.Scan(&e.ID, &e.OrderID, &e.Type, &e.Payload, &e.CreatedAt); err != nil {
				rows.Close()
				return err
			}
			events = append(events, e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		var done []int64
		done, fnErr = fn(events)
		if len(done) > 0 {
			if _, err := tx.Exec(ctx, `UPDATE order_events_outbox SET published_at = now() WHERE id = ANY($1)`, done); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	// Acks for the events fn delivered are committed even when fn failed part way.
	return fnErr
}

func (r *postgresRepo) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM order_events_outbox WHERE published_at IS NULL`).Scan(&n)
	return n, err
}
