package cart

import (
	"context"
	"testing"

	"coffeespot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	lines    map[string]int
	addErr   error
	lastUser string
	lastProd string
}

func newStubRepo() *stubRepo {
	return &stubRepo{lines: map[string]int{}}
}

func (s *stubRepo) AddLine(_ context.Context, userID, productID string) (*domain.CartLine, error) {
	s.lastUser, s.lastProd = userID, productID
	if s.addErr != nil {
		return nil, s.addErr
	}
	s.lines[productID]++
	return &domain.CartLine{UserID: userID, ProductID: productID, Quantity: s.lines[productID]}, nil
}

func (s *stubRepo) RemoveLine(_ context.Context, userID, productID string) (*domain.CartLine, error) {
	qty, ok := s.lines[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if qty <= 1 {
		delete(s.lines, productID)
		return nil, nil
	}
	s.lines[productID] = qty - 1
	return &domain.CartLine{UserID: userID, ProductID: productID, Quantity: qty - 1}, nil
}

func (s *stubRepo) ClearLine(_ context.Context, _, productID string) error {
	if _, ok := s.lines[productID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.lines, productID)
	return nil
}

func (s *stubRepo) ListByUser(_ context.Context, userID string) ([]domain.CartLine, error) {
	out := []domain.CartLine{}
	for p, q := range s.lines {
		out = append(out, domain.CartLine{UserID: userID, ProductID: p, Quantity: q})
	}
	return out, nil
}

type stubUsers struct {
	err error
}

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: id}, nil
}

var customer = domain.Identity{ID: "u1", Role: domain.RoleCustomer}

func TestAddThenRemove_LeavesNoLine(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, stubUsers{})
	ctx := context.Background()

	line, err := svc.Add(ctx, customer, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)

	line, err = svc.Remove(ctx, customer, "p1")
	require.NoError(t, err)
	assert.Nil(t, line)

	lines, err := svc.List(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRemove_NotInCart(t *testing.T) {
	svc := New(newStubRepo(), stubUsers{})
	_, err := svc.Remove(context.Background(), customer, "p1")
	require.Error(t, err)
	assert.Equal(t, "Product not in cart", domain.ErrorMessage(err))
}

func TestAdd_UnknownProduct(t *testing.T) {
	repo := newStubRepo()
	repo.addErr = domain.ErrNotFound
	svc := New(repo, stubUsers{})
	_, err := svc.Add(context.Background(), customer, "p404")
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.Equal(t, "Product p404 not found", domain.ErrorMessage(err))
}

func TestAdd_UnknownUser(t *testing.T) {
	svc := New(newStubRepo(), stubUsers{err: domain.ErrNotFound})
	_, err := svc.Add(context.Background(), customer, "p1")
	require.Error(t, err)
	assert.Equal(t, "User not found", domain.ErrorMessage(err))
}

func TestClear_RequiresExistingLine(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, stubUsers{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Add(ctx, customer, "p1")
		require.NoError(t, err)
	}
	require.NoError(t, svc.Clear(ctx, customer, "p1"))
	err := svc.Clear(ctx, customer, "p1")
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestAdmin_HasNoCart(t *testing.T) {
	svc := New(newStubRepo(), stubUsers{})
	_, err := svc.Add(context.Background(), domain.Identity{ID: "a", Role: domain.RoleAdmin}, "p1")
	require.Error(t, err)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
}
