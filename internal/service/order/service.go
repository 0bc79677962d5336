package order

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"coffeespot/internal/domain"
	orderrepo "coffeespot/internal/repository/order"
	"coffeespot/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   orderrepo.Repository
	logger zerolog.Logger
}

func New(repo orderrepo.Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("service", "order").Logger()}
}

type ItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PlaceInput is the checkout request. TotalAmount is the total the client
// computed and must match the server's calculation exactly.
type PlaceInput struct {
	Items           []ItemInput   `json:"items"`
	ShippingAddress string        `json:"shippingAddress"`
	ShippingFee     domain.Amount `json:"shippingFee"`
	PaymentMethod   string        `json:"paymentMethod"`
	TotalAmount     domain.Amount `json:"totalAmount"`
}

// UnmarshalJSON also accepts the line items under "orderItems".
func (in *PlaceInput) UnmarshalJSON(b []byte) error {
	type plain PlaceInput
	aux := struct {
		*plain
		OrderItems []ItemInput `json:"orderItems"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(in.Items) == 0 {
		in.Items = aux.OrderItems
	}
	return nil
}

func (s *Service) Place(ctx context.Context, caller domain.Identity, in PlaceInput) (*domain.Order, error) {
	const op = "order.place"
	if caller.Role != domain.RoleCustomer {
		return nil, domain.Forbidden(op, "only customers can place orders")
	}
	if len(in.Items) == 0 {
		return nil, domain.Invalid(op, "cart is empty")
	}
	address := strings.TrimSpace(in.ShippingAddress)
	method := strings.TrimSpace(in.PaymentMethod)
	if address == "" || method == "" || in.ShippingFee == "" || in.TotalAmount == "" {
		return nil, domain.Invalid(op, "Missing required fields")
	}
	fee, err := in.ShippingFee.Cents()
	if err != nil {
		return nil, err
	}
	claimed, err := in.TotalAmount.Cents()
	if err != nil {
		return nil, err
	}
	items, err := mergeItems(op, in.Items)
	if err != nil {
		return nil, err
	}

	placed, err := s.repo.Place(ctx, orderrepo.PlaceInput{
		UserID:           caller.ID,
		Items:            items,
		ShippingAddress:  address,
		ShippingFeeCents: fee,
		PaymentMethod:    method,
		TotalCents:       claimed,
		PaymentStatus:    domain.InitialPaymentStatus(method),
		Check: func(products map[string]domain.Product) error {
			return checkTotal(op, items, products, fee, claimed)
		},
	})
	if err != nil {
		return nil, err
	}
	telemetry.OrdersPlaced.Inc()
	return placed, nil
}

// checkTotal verifies stock for every item and that subtotal plus fee equals
// the claimed total.
func checkTotal(op string, items []domain.OrderItem, products map[string]domain.Product, fee, claimed int64) error {
	var subtotal int64
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return domain.NotFound(op, "Product %s not found", it.ProductID)
		}
		if p.Stock < it.Quantity {
			return domain.Invalid(op, "insufficient stock for %s", p.Title)
		}
		subtotal += p.PriceCents * int64(it.Quantity)
	}
	if subtotal+fee != claimed {
		return domain.Invalid(op, "calculated total amount doesn't match provided amount")
	}
	return nil
}

// mergeItems validates ids and quantities and folds duplicate products into one
// line, keeping first-seen order.
func mergeItems(op string, in []ItemInput) ([]domain.OrderItem, error) {
	out := make([]domain.OrderItem, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, it := range in {
		id := strings.TrimSpace(it.ProductID)
		if _, err := uuid.Parse(id); err != nil {
			return nil, domain.Invalid(op, "invalid product id %q", it.ProductID)
		}
		if it.Quantity < 1 || it.Quantity > domain.MaxItemQuantity {
			return nil, domain.Invalid(op, "quantity must be between 1 and %d", domain.MaxItemQuantity)
		}
		if i, ok := pos[id]; ok {
			if out[i].Quantity > domain.MaxItemQuantity-it.Quantity {
				return nil, domain.Invalid(op, "quantity must be between 1 and %d", domain.MaxItemQuantity)
			}
			out[i].Quantity += it.Quantity
			continue
		}
		pos[id] = len(out)
		out = append(out, domain.OrderItem{ProductID: id, Quantity: it.Quantity})
	}
	return out, nil
}

// UpdateStatus moves an order along the lifecycle on behalf of an admin.
func (s *Service) UpdateStatus(ctx context.Context, caller domain.Identity, orderID string, target domain.OrderStatus) (*domain.Order, error) {
	const op = "order.update_status"
	if !caller.IsAdmin() {
		return nil, domain.Forbidden(op, "only admins can update order status")
	}
	if !target.Valid() {
		return nil, domain.Invalid(op, "invalid status %q", string(target))
	}
	return s.transition(ctx, op, orderID, target, caller.ID, nil)
}

// Cancel lets the owner cancel an order that has not gone past preparation.
func (s *Service) Cancel(ctx context.Context, caller domain.Identity, orderID string) (*domain.Order, error) {
	const op = "order.cancel"
	return s.transition(ctx, op, orderID, domain.StatusCancelled, caller.ID, func(o *domain.Order) error {
		if o.UserID != caller.ID {
			return domain.Forbidden(op, "you can only cancel your own orders")
		}
		return nil
	})
}

func (s *Service) transition(ctx context.Context, op, orderID string, target domain.OrderStatus, actor string, owner func(*domain.Order) error) (*domain.Order, error) {
	out, err := s.repo.Transition(ctx, orderrepo.TransitionInput{
		OrderID: orderID,
		Target:  target,
		Actor:   actor,
		Check: func(o *domain.Order) error {
			if owner != nil {
				if err := owner(o); err != nil {
					return err
				}
			}
			return domain.CheckTransition(o.Status, target)
		},
	})
	if err != nil {
		return nil, notFound(op, orderID, err)
	}
	telemetry.OrderTransitions.WithLabelValues(string(target)).Inc()
	return out, nil
}

func (s *Service) UpdatePayment(ctx context.Context, caller domain.Identity, orderID string, status domain.PaymentStatus) (*domain.Order, error) {
	const op = "order.update_payment"
	if !caller.IsAdmin() {
		return nil, domain.Forbidden(op, "only admins can update payment status")
	}
	if !status.Valid() {
		return nil, domain.Invalid(op, "invalid payment status %q", string(status))
	}
	out, err := s.repo.SetPaymentStatus(ctx, orderID, status)
	if err != nil {
		return nil, notFound(op, orderID, err)
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, caller domain.Identity, orderID string) error {
	const op = "order.delete"
	if !caller.IsAdmin() {
		return domain.Forbidden(op, "only admins can delete orders")
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		return notFound(op, orderID, err)
	}
	return nil
}

// List returns every order for admins and the caller's own orders otherwise.
func (s *Service) List(ctx context.Context, caller domain.Identity) ([]domain.Order, error) {
	if caller.IsAdmin() {
		return s.repo.List(ctx, "")
	}
	return s.repo.List(ctx, caller.ID)
}

func (s *Service) Get(ctx context.Context, caller domain.Identity, orderID string) (*domain.Order, error) {
	const op = "order.get"
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(op, orderID, err)
	}
	if !caller.IsAdmin() && o.UserID != caller.ID {
		return nil, domain.Forbidden(op, "you can only view your own orders")
	}
	return o, nil
}

// notFound gives bare repository not-found errors a caller-facing message.
func notFound(op, id string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		return domain.NotFound(op, "Order %s not found", id)
	}
	return err
}
