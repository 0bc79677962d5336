package category

import (
	"context"

	"coffeespot/internal/domain"
)

// Repository reads the category tags carried by catalog products.
type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
}
