package cart

import (
	"context"

	"coffeespot/internal/domain"
)

// Repository persists cart lines keyed by (user, product).
type Repository interface {
	// AddLine creates the line at quantity 1 or increments it, pricing it at
	// quantity times the product's current price.
	AddLine(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	// RemoveLine decrements the line, deleting it at quantity 1. It returns nil
	// when the line was deleted.
	RemoveLine(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	// ClearLine deletes the line regardless of quantity.
	ClearLine(ctx context.Context, userID, productID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error)
}
