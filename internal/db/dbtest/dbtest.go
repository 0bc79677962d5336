// Package dbtest opens a migrated Postgres pool for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"

	"coffeespot/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const truncateAll = `TRUNCATE order_events_outbox, revoked_tokens, reviews, chat_messages, chats,
order_status_history, order_items, orders, cart_lines, products, users, admins RESTART IDENTITY CASCADE`

// Pool connects to TEST_DB_DSN, applies migrations and empties every table.
// The test is skipped when TEST_DB_DSN is unset.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "connect db")
	t.Cleanup(pool.Close)

	require.NoError(t, migrate.Apply(ctx, pool), "apply migrations")
	_, err = pool.Exec(ctx, truncateAll)
	require.NoError(t, err, "truncate tables")
	return pool
}

// InsertAdmin creates an admin row and returns its id.
func InsertAdmin(t *testing.T, pool *pgxpool.Pool, email string, supportAgent bool) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(), `
INSERT INTO admins (user_name, email, password_hash, is_support_agent)
VALUES ($1, $1, 'x', $2)
RETURNING id::text`, email, supportAgent).Scan(&id)
	require.NoError(t, err, "insert admin")
	return id
}

// InsertUser creates a user row and returns its id.
func InsertUser(t *testing.T, pool *pgxpool.Pool, email, phone string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(), `
INSERT INTO users (user_name, email, phone, password_hash)
VALUES ($1, $1, $2, 'x')
RETURNING id::text`, email, phone).Scan(&id)
	require.NoError(t, err, "insert user")
	return id
}

// InsertProduct creates a product row and returns its id.
func InsertProduct(t *testing.T, pool *pgxpool.Pool, title string, priceCents int64, stock int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(), `
INSERT INTO products (title, price_cents, categories, stock)
VALUES ($1, $2, ARRAY['coffee'], $3)
RETURNING id::text`, title, priceCents, stock).Scan(&id)
	require.NoError(t, err, "insert product")
	return id
}
