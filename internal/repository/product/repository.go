package product

import (
	"context"

	"coffeespot/internal/domain"
)

// CreateInput holds the columns of a new catalog entry.
type CreateInput struct {
	Title       string
	Description string
	PriceCents  int64
	Categories  []string
	Stock       int
	ImageKey    string
	ImageURL    string
	AddedBy     string
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	PriceCents  *int64
	Categories  []string
	Stock       *int
	ImageKey    *string
	ImageURL    *string
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, id string, in UpdateInput) (*domain.Product, error)
	// Delete removes the product and returns the deleted row.
	Delete(ctx context.Context, id string) (*domain.Product, error)
	// Upsert inserts or updates a product matched by title.
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
