package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/webshop/storefront/internal/domain"
)

type CheckoutAPI interface {
	PlaceOrder(ctx context.Context, userID int64, shippingAddress, shippingMethod string) (*domain.Order, error)
}

type CheckoutHandler struct {
	orders CheckoutAPI
}

func NewCheckoutHandler(orders CheckoutAPI) *CheckoutHandler {
	return &CheckoutHandler{orders: orders}
}

type PlaceOrderRequestDTO struct {
	ShippingAddress string `json:"shipping_address"`
	ShippingMethod  string `json:"shipping_method"`
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ShippingAddress == "" {
		respondError(w, http.StatusBadRequest, "invalid_address", "shipping_address is required")
		return
	}
	if req.ShippingMethod == "" {
		respondError(w, http.StatusBadRequest, "invalid_method", "shipping_method is required")
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), userID, req.ShippingAddress, req.ShippingMethod)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}
