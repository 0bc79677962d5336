package category

import (
	"context"
	"testing"

	"coffeespot/internal/db/dbtest"
	"coffeespot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_ListCountsTags(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	_, err := pool.Exec(ctx, `
INSERT INTO products (title, price_cents, categories, stock) VALUES
    ('Latte', 300, ARRAY['coffee', 'milk'], 1),
    ('Cold Brew', 350, ARRAY['coffee', 'cold'], 1),
    ('Croissant', 250, ARRAY['bakery'], 1)`)
	require.NoError(t, err)

	got, err := NewPostgres(pool).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{
		{Name: "bakery", ProductCount: 1},
		{Name: "coffee", ProductCount: 2},
		{Name: "cold", ProductCount: 1},
		{Name: "milk", ProductCount: 1},
	}, got)
}
