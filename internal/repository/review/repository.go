package review

import (
	"context"

	"coffeespot/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, userID, comment string, rating int) (*domain.Review, error)
	// List returns reviews newest first with the reviewer expanded.
	List(ctx context.Context) ([]domain.Review, error)
}
