package order

import (
	"context"

	"coffeespot/internal/domain"
)

// PlaceInput is a validated order ready to be persisted. Check runs inside the
// transaction with the ordered products locked and may reject the order.
type PlaceInput struct {
	UserID           string
	Items            []domain.OrderItem
	ShippingAddress  string
	ShippingFeeCents int64
	PaymentMethod    string
	TotalCents       int64
	PaymentStatus    domain.PaymentStatus
	Check            func(products map[string]domain.Product) error
}

// TransitionInput moves an order to Target. Check sees the locked order before
// anything is written.
type TransitionInput struct {
	OrderID string
	Target  domain.OrderStatus
	Actor   string
	Check   func(o *domain.Order) error
}

type Repository interface {
	Place(ctx context.Context, in PlaceInput) (*domain.Order, error)
	Transition(ctx context.Context, in TransitionInput) (*domain.Order, error)
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Order, error)
	// Delete removes the order, releasing its stock when it is not terminal.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns orders newest first; an empty userID lists every order.
	List(ctx context.Context, userID string) ([]domain.Order, error)
}
