package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus is a stage of the order lifecycle.
type OrderStatus string

const (
	StatusOrderReceived    OrderStatus = "ORDER_RECEIVED"
	StatusPaymentConfirmed OrderStatus = "PAYMENT_CONFIRMED"
	StatusPreparing        OrderStatus = "PREPARING"
	StatusReadyForPickup   OrderStatus = "READY_FOR_PICKUP"
	StatusPickedUp         OrderStatus = "PICKED_UP"
	StatusCompleted        OrderStatus = "COMPLETED"
	StatusCancelled        OrderStatus = "CANCELLED"
	StatusRefunded         OrderStatus = "REFUNDED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusOrderReceived,
	StatusPaymentConfirmed,
	StatusPreparing,
	StatusReadyForPickup,
	StatusPickedUp,
	StatusCompleted,
	StatusCancelled,
	StatusRefunded,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// ReleasesStock reports whether entering s returns the order's quantities to stock.
func (s OrderStatus) ReleasesStock() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// Next returns the statuses reachable from s in one step. This switch is the
// only transition table.
func (s OrderStatus) Next() []OrderStatus {
	switch s {
	case StatusOrderReceived:
		return []OrderStatus{StatusPaymentConfirmed, StatusCancelled}
	case StatusPaymentConfirmed:
		return []OrderStatus{StatusPreparing, StatusRefunded}
	case StatusPreparing:
		return []OrderStatus{StatusReadyForPickup, StatusCancelled}
	case StatusReadyForPickup:
		return []OrderStatus{StatusPickedUp}
	case StatusPickedUp:
		return []OrderStatus{StatusCompleted}
	}
	return nil
}

func CanTransition(from, to OrderStatus) bool {
	for _, n := range from.Next() {
		if n == to {
			return true
		}
	}
	return false
}

// Predecessors returns the statuses from which to is reachable.
func Predecessors(to OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, s := range OrderStatuses {
		if CanTransition(s, to) {
			out = append(out, s)
		}
	}
	return out
}

// CheckTransition validates moving an order from -> to and returns a caller-facing error.
func CheckTransition(from, to OrderStatus) error {
	const op = "order.transition"
	if !to.Valid() {
		return Invalid(op, "invalid status %q", string(to))
	}
	if from.Terminal() {
		return Invalid(op, "cannot modify order from %s state", from)
	}
	if CanTransition(from, to) {
		return nil
	}
	preds := Predecessors(to)
	if len(preds) == 0 {
		return Invalid(op, "order cannot be moved to %s", to)
	}
	names := make([]string, len(preds))
	for i, p := range preds {
		names[i] = string(p)
	}
	return Invalid(op, "order must be in %s status before marking as %s", strings.Join(names, " or "), to)
}

// PaymentStatus has no transition constraint; any value may overwrite any other.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentUnpaid  PaymentStatus = "UNPAID"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentUnpaid:
		return true
	}
	return false
}

// PaymentMethodCOD is cash on delivery; such orders start PENDING rather than UNPAID.
const PaymentMethodCOD = "COD"

func InitialPaymentStatus(method string) PaymentStatus {
	if strings.EqualFold(strings.TrimSpace(method), PaymentMethodCOD) {
		return PaymentPending
	}
	return PaymentUnpaid
}

// ActorSystem attributes status changes made by the engine itself.
const ActorSystem = "system"

type StatusChange struct {
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changedBy"`
	ChangedAt time.Time   `json:"changedAt"`
}

// MaxItemQuantity caps one order line after duplicates are merged.
const MaxItemQuantity = 1000

type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product,omitempty"`
}

type Order struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	User             *UserSummary   `json:"user,omitempty"`
	Items            []OrderItem    `json:"orderItems"`
	ShippingAddress  string         `json:"shippingAddress"`
	ShippingFeeCents int64          `json:"shippingFeeCents"`
	PaymentMethod    string         `json:"paymentMethod"`
	TotalCents       int64          `json:"totalCents"`
	Status           OrderStatus    `json:"orderStatus"`
	PaymentStatus    PaymentStatus  `json:"paymentStatus"`
	StatusHistory    []StatusChange `json:"statusHistory"`
	PlacedAt         time.Time      `json:"placedAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (o Order) String() string {
	return fmt.Sprintf("order %s (%s)", o.ID, o.Status)
}

// Order event types written to the outbox.
const (
	EventOrderPlaced         = "order.placed"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderPaymentUpdated = "order.payment_updated"
	EventOrderDeleted        = "order.deleted"
)
