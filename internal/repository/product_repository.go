package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/webshop/storefront/internal/domain"
)

func (r *Repository) GetActiveUser(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, email, is_active FROM users WHERE id = $1`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Email, &user.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user by id: %w", err)
	}

	// Inactive users are indistinguishable from missing ones for callers.
	if !user.IsActive {
		return nil, domain.ErrUserNotFound
	}

	return &user, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT id, name, category_id, price, stock, created_at, updated_at
	          FROM products WHERE id = $1`

	var p domain.Product
	var price string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.CategoryID,
		&price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}

	if p.Price, err = parseMoney(price); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT id, name, category_id, price, stock, created_at, updated_at
	          FROM products ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		if p.Price, err = parseMoney(price); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}
