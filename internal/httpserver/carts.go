package httpserver

import (
	"context"
	"net/http"

	"coffeespot/internal/domain"
	"github.com/gin-gonic/gin"
)

type CartService interface {
	Add(ctx context.Context, caller domain.Identity, productID string) (*domain.CartLine, error)
	Remove(ctx context.Context, caller domain.Identity, productID string) (*domain.CartLine, error)
	Clear(ctx context.Context, caller domain.Identity, productID string) error
	List(ctx context.Context, caller domain.Identity) ([]domain.CartLine, error)
}

type cartRequest struct {
	ProductID string `json:"productId"`
}

func (h *handlers) addToCart(c *gin.Context) {
	var req cartRequest
	if !bindJSON(c, &req) {
		return
	}
	line, err := h.carts.Add(c.Request.Context(), caller(c), req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Product added to cart", gin.H{"cartItem": line})
}

func (h *handlers) removeFromCart(c *gin.Context) {
	var req cartRequest
	if !bindJSON(c, &req) {
		return
	}
	line, err := h.carts.Remove(c.Request.Context(), caller(c), req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	if line == nil {
		writeOK(c, http.StatusOK, "Product removed from cart", nil)
		return
	}
	writeOK(c, http.StatusOK, "Product quantity decreased", gin.H{"cartItem": line})
}

func (h *handlers) clearCartItem(c *gin.Context) {
	var req cartRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), caller(c), req.ProductID); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "All cart items removed for this product", nil)
}

func (h *handlers) listCart(c *gin.Context) {
	lines, err := h.carts.List(c.Request.Context(), caller(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Cart items fetched successfully", gin.H{"cartItems": lines})
}
