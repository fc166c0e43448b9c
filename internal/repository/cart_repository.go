package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/webshop/storefront/internal/domain"
)

func scanCartLine(row *sql.Row) (*domain.CartLine, error) {
	var line domain.CartLine
	err := row.Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCartLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan cart line: %w", err)
	}
	return &line, nil
}

func (r *Repository) GetCartLines(ctx context.Context, userID int64) ([]*domain.CartLine, error) {
	query := `SELECT id, user_id, product_id, quantity, created_at, updated_at
	          FROM cart_items WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []*domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line row: %w", err)
		}
		lines = append(lines, &line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

func (r *Repository) GetCartLineByProduct(ctx context.Context, userID, productID int64) (*domain.CartLine, error) {
	query := `SELECT id, user_id, product_id, quantity, created_at, updated_at
	          FROM cart_items WHERE user_id = $1 AND product_id = $2`

	return scanCartLine(r.db.QueryRowContext(ctx, query, userID, productID))
}

// GetCartLine is scoped to the owning user: a line belonging to someone
// else looks exactly like a missing one.
func (r *Repository) GetCartLine(ctx context.Context, userID, lineID int64) (*domain.CartLine, error) {
	query := `SELECT id, user_id, product_id, quantity, created_at, updated_at
	          FROM cart_items WHERE id = $1 AND user_id = $2`

	return scanCartLine(r.db.QueryRowContext(ctx, query, lineID, userID))
}

// UpsertCartLine creates the (user, product) line or increments its
// quantity when it already exists.
func (r *Repository) UpsertCartLine(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	query := `INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
	          VALUES ($1, $2, $3, NOW(), NOW())
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
	          RETURNING id, user_id, product_id, quantity, created_at, updated_at`

	return scanCartLine(r.db.QueryRowContext(ctx, query, userID, productID, quantity))
}

func (r *Repository) UpdateCartLineQuantity(ctx context.Context, userID, lineID int64, quantity int) (*domain.CartLine, error) {
	query := `UPDATE cart_items SET quantity = $3, updated_at = NOW()
	          WHERE id = $1 AND user_id = $2
	          RETURNING id, user_id, product_id, quantity, created_at, updated_at`

	return scanCartLine(r.db.QueryRowContext(ctx, query, lineID, userID, quantity))
}

// DeleteCartLine reports whether a row was actually removed; deleting a
// missing or foreign line is not an error.
func (r *Repository) DeleteCartLine(ctx context.Context, userID, lineID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, lineID, userID)
	if err != nil {
		return false, fmt.Errorf("delete cart line: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete cart line rows affected: %w", err)
	}

	return affected > 0, nil
}
