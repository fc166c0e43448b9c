package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/webshop/storefront/internal/domain"
)

type OrdersAPI interface {
	GetOrder(ctx context.Context, userID int64, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	CreateShipment(ctx context.Context, userID int64, orderID uuid.UUID, courier, trackingNumber string, cost decimal.Decimal) (*domain.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, shipmentID uuid.UUID, status domain.ShipmentStatus) (*domain.Shipment, error)
}

type OrdersHandler struct {
	orders OrdersAPI
}

func NewOrdersHandler(orders OrdersAPI) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

type UpdateOrderStatusRequestDTO struct {
	Status string `json:"status"`
}

type CreateShipmentRequestDTO struct {
	Courier        string `json:"courier"`
	TrackingNumber string `json:"tracking_number"`
	Cost           string `json:"cost"`
}

type ShipmentStatusRequestDTO struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	var req UpdateOrderStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	var req CreateShipmentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cost, err := decimal.NewFromString(req.Cost)
	if err != nil || cost.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_cost", "cost must be a non-negative decimal string")
		return
	}

	shipment, err := h.orders.CreateShipment(r.Context(), userID, orderID, req.Courier, req.TrackingNumber, cost)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, shipment)
}

// ShipmentStatus is the courier callback endpoint.
func (h *OrdersHandler) ShipmentStatus(w http.ResponseWriter, r *http.Request) {
	shipmentID, err := uuid.Parse(chi.URLParam(r, "shipment_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_shipment_id", "shipment_id must be a UUID")
		return
	}

	var req ShipmentStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	shipment, err := h.orders.UpdateShipmentStatus(r.Context(), shipmentID, domain.ShipmentStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, shipment)
}
