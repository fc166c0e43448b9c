package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/webshop/storefront/internal/cache"
	"github.com/webshop/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CartStore is what the cart manager needs from the relational store.
// Consumers define this interface, not the Postgres implementation.
type CartStore interface {
	GetActiveUser(ctx context.Context, id int64) (*domain.User, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetCartLines(ctx context.Context, userID int64) ([]*domain.CartLine, error)
	GetCartLineByProduct(ctx context.Context, userID, productID int64) (*domain.CartLine, error)
	GetCartLine(ctx context.Context, userID, lineID int64) (*domain.CartLine, error)
	UpsertCartLine(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error)
	UpdateCartLineQuantity(ctx context.Context, userID, lineID int64, quantity int) (*domain.CartLine, error)
	DeleteCartLine(ctx context.Context, userID, lineID int64) (bool, error)
}

type CartService struct {
	store CartStore
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCartService(store CartStore, cache cache.CartCache) *CartService {
	return &CartService{
		store: store,
		cache: cache,
	}
}

// AddItem puts quantity units of a product into the user's cart, merging
// with an existing line for the same product. The stock check here is a
// soft one: it reads the current level and compares, giving the user
// immediate feedback. The authoritative check happens at checkout under
// row locks, so a race between two adds is accepted.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.store.GetActiveUser(ctx, userID); err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if quantity > product.Stock {
		return nil, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}

	existing, err := s.store.GetCartLineByProduct(ctx, userID, productID)
	if err != nil && !errors.Is(err, domain.ErrCartLineNotFound) {
		return nil, err
	}

	// Repeat adds merge; the merged total must still fit in stock. On
	// failure the existing line is left untouched.
	if existing != nil && existing.Quantity+quantity > product.Stock {
		return nil, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
			InCart:      existing.Quantity,
		}
	}

	line, err := s.store.UpsertCartLine(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return line, nil
}

// UpdateQuantity replaces a line's quantity. A line that does not exist and
// a line owned by another user produce the same ErrCartLineNotFound.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int) (*domain.CartLine, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}

	line, err := s.store.GetCartLine(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}

	if quantity > product.Stock {
		return nil, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}

	updated, err := s.store.UpdateCartLineQuantity(ctx, userID, lineID, quantity)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return updated, nil
}

// RemoveItem is idempotent: it reports whether a line was removed and
// never fails on a missing or foreign line.
func (s *CartService) RemoveItem(ctx context.Context, userID, lineID int64) (bool, error) {
	removed, err := s.store.DeleteCartLine(ctx, userID, lineID)
	if err != nil {
		return false, err
	}

	if removed {
		s.invalidateCache(userID)
	}
	return removed, nil
}

// ListCart returns the user's lines without re-validating stock; a stale
// line is resolved at checkout, not here.
func (s *CartService) ListCart(ctx context.Context, userID int64) ([]*domain.CartLine, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(cartKey(userID), func() (interface{}, error) {
		lines, err := s.cache.Get(ctx, userID)
		if err == nil {
			return lines, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		lines, errGet := s.store.GetCartLines(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(ctx, userID, lines); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return lines, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]*domain.CartLine), nil
}

func (s *CartService) invalidateCache(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func cartKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
