package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/webshop/storefront/internal/cache"
	"github.com/webshop/storefront/internal/domain"
)

// OrderStore is what order placement and fulfilment need from the store.
// PlaceOrder is the atomic unit: the implementation must validate stock,
// write the order, decrement stock and clear the cart in one transaction.
type OrderStore interface {
	GetActiveUser(ctx context.Context, id int64) (*domain.User, error)
	PlaceOrder(ctx context.Context, userID int64, shippingAddress, shippingMethod string) (*domain.Order, error)
	GetOrderByID(ctx context.Context, userID int64, orderID uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	CreateShipment(ctx context.Context, shipment *domain.Shipment) error
	UpdateShipmentStatus(ctx context.Context, shipmentID uuid.UUID, status domain.ShipmentStatus) (*domain.Shipment, error)
}

type OrderService struct {
	store OrderStore
	cache cache.CartCache
}

func NewOrderService(store OrderStore, cache cache.CartCache) *OrderService {
	return &OrderService{store: store, cache: cache}
}

// PlaceOrder converts the user's cart into a pending order. All stock
// validation happens inside the store transaction; a failure there leaves
// cart, stock and orders untouched. Not idempotent across retries: a
// caller that needs exactly-once must track its own idempotency key.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, shippingAddress, shippingMethod string) (*domain.Order, error) {
	if strings.TrimSpace(shippingAddress) == "" || strings.TrimSpace(shippingMethod) == "" {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.store.GetActiveUser(ctx, userID); err != nil {
		return nil, err
	}

	order, err := s.store.PlaceOrder(ctx, userID, shippingAddress, shippingMethod)
	if err != nil {
		return nil, err
	}

	// The transaction already deleted the cart lines; the cache entry is
	// only a hint, so a failed invalidation is logged and tolerated.
	invalidateCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if errInvalidate := s.cache.Delete(invalidateCtx, userID); errInvalidate != nil {
		log.Printf("cache invalidate error after checkout: %v", errInvalidate)
	}

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID int64, orderID uuid.UUID) (*domain.Order, error) {
	return s.store.GetOrderByID(ctx, userID, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return s.store.ListOrdersByUserID(ctx, userID)
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	switch status {
	case domain.OrderStatusPaid, domain.OrderStatusShipped, domain.OrderStatusCompleted, domain.OrderStatusCancelled:
	default:
		return nil, domain.ErrInvalidInput
	}
	return s.store.UpdateOrderStatus(ctx, orderID, status)
}

// CreateShipment attaches a shipping record to an already-placed order.
// It lives outside the checkout transaction: shipments have their own
// lifecycle, driven by courier callbacks.
func (s *OrderService) CreateShipment(ctx context.Context, userID int64, orderID uuid.UUID, courier, trackingNumber string, cost decimal.Decimal) (*domain.Shipment, error) {
	if strings.TrimSpace(courier) == "" || strings.TrimSpace(trackingNumber) == "" {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.store.GetOrderByID(ctx, userID, orderID); err != nil {
		return nil, err
	}

	shipment := &domain.Shipment{
		ID:             uuid.New(),
		OrderID:        orderID,
		Courier:        courier,
		TrackingNumber: trackingNumber,
		Cost:           cost,
		Status:         domain.ShipmentStatusPreparing,
	}
	if err := s.store.CreateShipment(ctx, shipment); err != nil {
		return nil, err
	}

	return shipment, nil
}

// UpdateShipmentStatus is the courier callback path; couriers are trusted
// collaborators and are not scoped to a user.
func (s *OrderService) UpdateShipmentStatus(ctx context.Context, shipmentID uuid.UUID, status domain.ShipmentStatus) (*domain.Shipment, error) {
	switch status {
	case domain.ShipmentStatusPreparing, domain.ShipmentStatusInTransit, domain.ShipmentStatusDelivered:
	default:
		return nil, domain.ErrInvalidInput
	}
	return s.store.UpdateShipmentStatus(ctx, shipmentID, status)
}
