package outbox

import (
	"context"
	"time"
)

// Event is an order event waiting to be relayed to the broker.
type Event struct {
	ID        int64
	OrderID   string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Repository reads and acknowledges pending events. Writes happen through
// Append inside the transaction that changes the order.
type Repository interface {
	// ClaimPending locks up to limit unpublished events and passes them to fn.
	// Events whose ids fn returns are marked published, and fn's error is
	// returned after that commit.
	ClaimPending(ctx context.Context, limit int, fn func(events []Event) ([]int64, error)) error
	PendingCount(ctx context.Context) (int, error)
}
