package cart

import (
	"context"
	"strings"

	"coffeespot/internal/domain"
	cartrepo "coffeespot/internal/repository/cart"
)

type Service struct {
	repo  cartrepo.Repository
	users userLookup
}

type userLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

func New(repo cartrepo.Repository, users userLookup) *Service {
	return &Service{repo: repo, users: users}
}

// Add puts one more unit of the product in the caller's cart.
func (s *Service) Add(ctx context.Context, caller domain.Identity, productID string) (*domain.CartLine, error) {
	const op = "cart.add"
	productID, err := s.prepare(ctx, op, caller, productID)
	if err != nil {
		return nil, err
	}
	line, err := s.repo.AddLine(ctx, caller.ID, productID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, domain.NotFound(op, "Product %s not found", productID)
		}
		return nil, err
	}
	return line, nil
}

// Remove takes one unit out. The returned line is nil when the last unit was removed.
func (s *Service) Remove(ctx context.Context, caller domain.Identity, productID string) (*domain.CartLine, error) {
	const op = "cart.remove"
	productID, err := s.prepare(ctx, op, caller, productID)
	if err != nil {
		return nil, err
	}
	line, err := s.repo.RemoveLine(ctx, caller.ID, productID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, domain.Invalid(op, "Product not in cart")
		}
		return nil, err
	}
	return line, nil
}

// Clear drops the product from the cart whatever its quantity.
func (s *Service) Clear(ctx context.Context, caller domain.Identity, productID string) error {
	const op = "cart.clear"
	productID, err := s.prepare(ctx, op, caller, productID)
	if err != nil {
		return err
	}
	if err := s.repo.ClearLine(ctx, caller.ID, productID); err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return domain.Invalid(op, "No cart items found for this product")
		}
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, caller domain.Identity) ([]domain.CartLine, error) {
	if caller.Role != domain.RoleCustomer {
		return nil, domain.Forbidden("cart.list", "only customers have a cart")
	}
	return s.repo.ListByUser(ctx, caller.ID)
}

func (s *Service) prepare(ctx context.Context, op string, caller domain.Identity, productID string) (string, error) {
	if caller.Role != domain.RoleCustomer {
		return "", domain.Forbidden(op, "only customers have a cart")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return "", domain.Invalid(op, "productId required")
	}
	if _, err := s.users.GetByID(ctx, caller.ID); err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return "", domain.NotFound(op, "User not found")
		}
		return "", err
	}
	return productID, nil
}
