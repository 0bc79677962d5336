package cart

import (
	"context"
	"testing"

	"coffeespot/internal/db/dbtest"
	"coffeespot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_AddIncrementsAndReprices(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	userID := dbtest.InsertUser(t, pool, "u@coffee.test", "100")
	productID := dbtest.InsertProduct(t, pool, "Latte", 300, 10)
	repo := NewPostgres(pool)

	line, err := repo.AddLine(ctx, userID, productID)
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, int64(300), line.PriceCents)

	_, err = pool.Exec(ctx, `UPDATE products SET price_cents = 320 WHERE id = $1`, productID)
	require.NoError(t, err)

	line, err = repo.AddLine(ctx, userID, productID)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, int64(640), line.PriceCents)
	assert.Equal(t, "Latte", line.Product.Title)
}

func TestPostgres_AddUnknownProduct(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	userID := dbtest.InsertUser(t, pool, "u@coffee.test", "100")

	_, err := NewPostgres(pool).AddLine(ctx, userID, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_AddThenRemoveLeavesNoLine(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	userID := dbtest.InsertUser(t, pool, "u@coffee.test", "100")
	productID := dbtest.InsertProduct(t, pool, "Latte", 300, 10)
	repo := NewPostgres(pool)

	_, err := repo.AddLine(ctx, userID, productID)
	require.NoError(t, err)
	_, err = repo.AddLine(ctx, userID, productID)
	require.NoError(t, err)

	line, err := repo.RemoveLine(ctx, userID, productID)
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, int64(300), line.PriceCents)

	line, err = repo.RemoveLine(ctx, userID, productID)
	require.NoError(t, err)
	assert.Nil(t, line)

	lines, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = repo.RemoveLine(ctx, userID, productID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_ClearLine(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	userID := dbtest.InsertUser(t, pool, "u@coffee.test", "100")
	productID := dbtest.InsertProduct(t, pool, "Latte", 300, 10)
	repo := NewPostgres(pool)

	for i := 0; i < 3; i++ {
		_, err := repo.AddLine(ctx, userID, productID)
		require.NoError(t, err)
	}
	require.NoError(t, repo.ClearLine(ctx, userID, productID))
	assert.ErrorIs(t, repo.ClearLine(ctx, userID, productID), domain.ErrNotFound)
}
