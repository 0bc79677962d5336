package httpserver

import (
	"context"
	"net/http"

	"coffeespot/internal/domain"
	reviewsvc "coffeespot/internal/service/review"
	"github.com/gin-gonic/gin"
)

type ReviewService interface {
	Create(ctx context.Context, caller domain.Identity, in reviewsvc.CreateInput) (*domain.Review, error)
	List(ctx context.Context) ([]domain.Review, error)
}

func (h *handlers) addReview(c *gin.Context) {
	var in reviewsvc.CreateInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.reviews.Create(c.Request.Context(), caller(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusCreated, "Review added successfully", gin.H{"review": r})
}

func (h *handlers) listReviews(c *gin.Context) {
	reviews, err := h.reviews.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Reviews fetched successfully", gin.H{"reviews": reviews})
}
