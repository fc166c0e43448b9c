package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/webshop/storefront/internal/domain"
)

func (r *Repository) CreateShipment(ctx context.Context, shipment *domain.Shipment) error {
	query := `INSERT INTO shipments (id, order_id, courier, tracking_number, cost, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	          RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		shipment.ID,
		shipment.OrderID,
		shipment.Courier,
		shipment.TrackingNumber,
		shipment.Cost.StringFixed(2),
		shipment.Status,
	).Scan(&shipment.CreatedAt, &shipment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}

	return nil
}

func (r *Repository) UpdateShipmentStatus(ctx context.Context, shipmentID uuid.UUID, status domain.ShipmentStatus) (*domain.Shipment, error) {
	query := `UPDATE shipments SET status = $2, updated_at = NOW() WHERE id = $1
	          RETURNING id, order_id, courier, tracking_number, cost, status, created_at, updated_at`

	var s domain.Shipment
	var cost string
	err := r.db.QueryRowContext(ctx, query, shipmentID, status).Scan(
		&s.ID,
		&s.OrderID,
		&s.Courier,
		&s.TrackingNumber,
		&cost,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrShipmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update shipment status: %w", err)
	}

	if s.Cost, err = parseMoney(cost); err != nil {
		return nil, err
	}

	return &s, nil
}
