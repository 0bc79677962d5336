package user

import (
	"context"
	"testing"

	"coffeespot/internal/db/dbtest"
	"coffeespot/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(t), zerolog.Nop())

	created, err := repo.Create(ctx, domain.User{
		UserName:     "Ada",
		Email:        "Ada@Coffee.test",
		Phone:        "5550001",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@coffee.test", created.Email)

	byPhone, err := repo.GetByPhone(ctx, "5550001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPhone.ID)

	_, err = repo.Create(ctx, domain.User{UserName: "Other", Email: "x@coffee.test", Phone: "5550001", PasswordHash: "h"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	found, err := repo.FindByEmail(ctx, "ADA@")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestPostgres_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(t), zerolog.Nop())
	u, err := repo.Create(ctx, domain.User{UserName: "Bo", Email: "bo@coffee.test", Phone: "1", PasswordHash: "h"})
	require.NoError(t, err)

	addr := "1 Bean St"
	updated, err := repo.Update(ctx, u.ID, UpdateInput{Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "Bo", updated.UserName)
	assert.Equal(t, addr, updated.Address)

	require.NoError(t, repo.TouchLastActive(ctx, u.ID))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastActiveAt)

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), domain.ErrNotFound)
}
