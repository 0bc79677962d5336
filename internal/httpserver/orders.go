package httpserver

import (
	"context"
	"net/http"
	"strings"

	"coffeespot/internal/domain"
	ordersvc "coffeespot/internal/service/order"
	"github.com/gin-gonic/gin"
)

type OrderService interface {
	Place(ctx context.Context, caller domain.Identity, in ordersvc.PlaceInput) (*domain.Order, error)
	UpdateStatus(ctx context.Context, caller domain.Identity, orderID string, target domain.OrderStatus) (*domain.Order, error)
	Cancel(ctx context.Context, caller domain.Identity, orderID string) (*domain.Order, error)
	UpdatePayment(ctx context.Context, caller domain.Identity, orderID string, status domain.PaymentStatus) (*domain.Order, error)
	Delete(ctx context.Context, caller domain.Identity, orderID string) error
	List(ctx context.Context, caller domain.Identity) ([]domain.Order, error)
	Get(ctx context.Context, caller domain.Identity, orderID string) (*domain.Order, error)
}

// orderStatusRequest takes "status"; "orderStatus" is accepted as an alias.
type orderStatusRequest struct {
	Status      string `json:"status"`
	OrderStatus string `json:"orderStatus"`
}

func (r orderStatusRequest) value() string {
	if strings.TrimSpace(r.Status) != "" {
		return r.Status
	}
	return r.OrderStatus
}

// paymentStatusRequest takes "payment"; "paymentStatus" is accepted as an alias.
type paymentStatusRequest struct {
	Payment       string `json:"payment"`
	PaymentStatus string `json:"paymentStatus"`
}

func (r paymentStatusRequest) value() string {
	if strings.TrimSpace(r.Payment) != "" {
		return r.Payment
	}
	return r.PaymentStatus
}

func (h *handlers) placeOrder(c *gin.Context) {
	var in ordersvc.PlaceInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.orders.Place(c.Request.Context(), caller(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusCreated, "Order placed successfully", gin.H{"order": o})
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), caller(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Orders fetched successfully", gin.H{"orders": orders})
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Order fetched successfully", gin.H{"order": o})
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	target := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(req.value())))
	o, err := h.orders.UpdateStatus(c.Request.Context(), caller(c), c.Param("id"), target)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Order status updated successfully", gin.H{"order": o})
}

func (h *handlers) cancelOrder(c *gin.Context) {
	o, err := h.orders.Cancel(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Order cancelled successfully", gin.H{"order": o})
}

func (h *handlers) updatePaymentStatus(c *gin.Context) {
	var req paymentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status := domain.PaymentStatus(strings.ToUpper(strings.TrimSpace(req.value())))
	o, err := h.orders.UpdatePayment(c.Request.Context(), caller(c), c.Param("id"), status)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Payment status updated successfully", gin.H{"order": o})
}

func (h *handlers) deleteOrder(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Order deleted successfully", nil)
}
