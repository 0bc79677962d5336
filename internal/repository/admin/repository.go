package admin

import (
	"context"

	"coffeespot/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, a domain.Admin) (*domain.Admin, error)
	GetByID(ctx context.Context, id string) (*domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	Count(ctx context.Context) (int, error)
	SetPassword(ctx context.Context, id, hash string) error
}
