package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingOption is a transient quote produced by the estimator; it is
// never persisted.
type ShippingOption struct {
	Method        string          `json:"method"`
	Cost          decimal.Decimal `json:"cost"`
	EstimatedDays int             `json:"estimated_days"`
}

type ShipmentStatus string

const (
	ShipmentStatusPreparing ShipmentStatus = "preparing"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
)

// Shipment is the persisted shipping record, linked 1:1 to an order and
// updated by courier status callbacks.
type Shipment struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"order_id"`
	Courier        string          `json:"courier"`
	TrackingNumber string          `json:"tracking_number"`
	Cost           decimal.Decimal `json:"cost"`
	Status         ShipmentStatus  `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
