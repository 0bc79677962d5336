package user

import (
	"context"

	"coffeespot/internal/domain"
)

// UpdateInput carries profile fields; nil leaves the column unchanged.
type UpdateInput struct {
	UserName       *string
	Address        *string
	ProfilePicture *string
	PictureKey     *string
}

// Repository persists and fetches customers.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	// FindByEmail returns users whose email contains the fragment; empty lists all.
	FindByEmail(ctx context.Context, fragment string) ([]domain.User, error)
	Update(ctx context.Context, id string, in UpdateInput) (*domain.User, error)
	SetPassword(ctx context.Context, id, hash string) error
	TouchLastActive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
