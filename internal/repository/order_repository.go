package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/webshop/storefront/internal/domain"
)

type cartLineWithProduct struct {
	productID   int64
	productName string
	quantity    int
	price       decimal.Decimal
	stock       int
}

// PlaceOrder converts the user's entire cart into an order inside a single
// transaction. Product rows are locked for the duration, so the stock
// re-validation and the decrement cannot interleave with a concurrent
// checkout: either every write lands or none does, and stock never goes
// negative.
func (r *Repository) PlaceOrder(ctx context.Context, userID int64, shippingAddress, shippingMethod string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin place order tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lines, err := lockCartWithProducts(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	total := decimal.Zero
	for _, line := range lines {
		if line.quantity > line.stock {
			return nil, &domain.InsufficientStockError{
				ProductID:   line.productID,
				ProductName: line.productName,
				Requested:   line.quantity,
				Available:   line.stock,
			}
		}
		total = total.Add(line.price.Mul(decimal.NewFromInt(int64(line.quantity))))
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          userID,
		TotalAmount:     total,
		Status:          domain.OrderStatusPending,
		ShippingAddress: shippingAddress,
		ShippingMethod:  shippingMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO orders (id, user_id, total_amount, status, shipping_address, shipping_method, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID,
		order.UserID,
		order.TotalAmount.StringFixed(2),
		order.Status,
		order.ShippingAddress,
		order.ShippingMethod,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, line := range lines {
		_, err = tx.ExecContext(ctx, `INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		          VALUES ($1, $2, $3, $4)`,
			order.ID, line.productID, line.quantity, line.price.StringFixed(2))
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1`,
			line.productID, line.quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}

		order.Items = append(order.Items, domain.OrderLine{
			ProductID:       line.productID,
			Quantity:        line.quantity,
			PriceAtPurchase: line.price,
		})
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err = insertOutboxEvent(ctx, tx, order.ID.String(), "OrderPlaced", orderPlacedPayload(order)); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit place order tx: %w", err)
	}

	return order, nil
}

// lockCartWithProducts reads the user's cart joined to live product rows,
// taking row locks on the products. Lines are ordered by product id so
// concurrent checkouts acquire locks in the same order.
func lockCartWithProducts(ctx context.Context, tx *sql.Tx, userID int64) ([]cartLineWithProduct, error) {
	query := `SELECT p.id, p.name, ci.quantity, p.price, p.stock
	          FROM cart_items ci
	          JOIN products p ON p.id = ci.product_id
	          WHERE ci.user_id = $1
	          ORDER BY p.id
	          FOR UPDATE OF p`

	rows, err := tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("lock cart lines: %w", err)
	}
	defer rows.Close()

	var lines []cartLineWithProduct
	for rows.Next() {
		var line cartLineWithProduct
		var price string
		if err := rows.Scan(&line.productID, &line.productName, &line.quantity, &price, &line.stock); err != nil {
			return nil, fmt.Errorf("scan locked cart line: %w", err)
		}
		if line.price, err = parseMoney(price); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

func orderPlacedPayload(order *domain.Order) map[string]interface{} {
	items := make([]map[string]interface{}, len(order.Items))
	for i, item := range order.Items {
		items[i] = map[string]interface{}{
			"product_id":        item.ProductID,
			"quantity":          item.Quantity,
			"price_at_purchase": item.PriceAtPurchase.StringFixed(2),
		}
	}
	return map[string]interface{}{
		"order_id":     order.ID,
		"user_id":      order.UserID,
		"total_amount": order.TotalAmount.StringFixed(2),
		"items":        items,
		"placed_at":    order.CreatedAt,
	}
}

// GetOrderByID is scoped to the owning user, like cart lines: someone
// else's order reads as missing.
func (r *Repository) GetOrderByID(ctx context.Context, userID int64, orderID uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, user_id, total_amount, status, shipping_address, shipping_method, created_at, updated_at
	          FROM orders WHERE id = $1 AND user_id = $2`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID, userID))
	if err != nil {
		return nil, err
	}

	if order.Items, err = r.getOrderLines(ctx, orderID); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error) {
	query := `SELECT id, user_id, total_amount, status, shipping_address, shipping_method, created_at, updated_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		var total string
		if err := rows.Scan(&o.ID, &o.UserID, &total, &o.Status, &o.ShippingAddress, &o.ShippingMethod, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		if o.TotalAmount, err = parseMoney(total); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, o := range orders {
		if o.Items, err = r.getOrderLines(ctx, o.ID); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// UpdateOrderStatus applies one legal state-machine step under a row lock.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin status update tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock order row: %w", err)
	}

	if !current.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, current, status)
	}

	order, err := scanOrder(tx.QueryRowContext(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1
	          RETURNING id, user_id, total_amount, status, shipping_address, shipping_method, created_at, updated_at`,
		orderID, status))
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"order_id": orderID,
		"from":     current,
		"to":       status,
	}
	if err = insertOutboxEvent(ctx, tx, orderID.String(), "OrderStatusChanged", payload); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status update tx: %w", err)
	}

	return order, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var total string
	err := row.Scan(&o.ID, &o.UserID, &total, &o.Status, &o.ShippingAddress, &o.ShippingMethod, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if o.TotalAmount, err = parseMoney(total); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) getOrderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT product_id, quantity, price_at_purchase
	          FROM order_items WHERE order_id = $1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderLine
	for rows.Next() {
		var item domain.OrderLine
		var price string
		if err := rows.Scan(&item.ProductID, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		if item.PriceAtPurchase, err = parseMoney(price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, aggregateID, eventType string, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO outbox_events (aggregate_id, event_type, payload)
	          VALUES ($1, $2, $3)`, aggregateID, eventType, payloadJSON)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	return nil
}
