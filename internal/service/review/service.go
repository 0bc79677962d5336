package review

import (
	"context"
	"strings"

	"coffeespot/internal/domain"
	reviewrepo "coffeespot/internal/repository/review"
)

type Service struct {
	repo reviewrepo.Repository
}

func New(repo reviewrepo.Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Comment string `json:"comment"`
	Rating  *int   `json:"rating"`
}

// Create records a review authored by the caller.
func (s *Service) Create(ctx context.Context, caller domain.Identity, in CreateInput) (*domain.Review, error) {
	const op = "review.create"
	if caller.Role != domain.RoleCustomer {
		return nil, domain.Forbidden(op, "only customers can add reviews")
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" || in.Rating == nil {
		return nil, domain.Invalid(op, "Comment and rating are required")
	}
	if *in.Rating < domain.MinRating || *in.Rating > domain.MaxRating {
		return nil, domain.Invalid(op, "rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	r, err := s.repo.Create(ctx, caller.ID, comment, *in.Rating)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, domain.NotFound(op, "User not found")
		}
		return nil, err
	}
	return r, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Review, error) {
	return s.repo.List(ctx)
}
