package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/webshop/storefront/internal/domain"
)

// BreakerCache wraps a CartCache with a circuit breaker so a struggling
// redis does not slow every cart read down to its timeout. While the
// breaker is open, reads report a miss and writes are dropped; the service
// falls back to the repository either way.
type BreakerCache struct {
	inner CartCache
	cb    *gobreaker.CircuitBreaker[[]*domain.CartLine]
}

func NewBreakerCache(inner CartCache) *BreakerCache {
	settings := gobreaker.Settings{
		Name:    "cart-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A miss is a normal outcome, not a redis failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
	}
	return &BreakerCache{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[[]*domain.CartLine](settings),
	}
}

func (b *BreakerCache) Get(ctx context.Context, userID int64) ([]*domain.CartLine, error) {
	lines, err := b.cb.Execute(func() ([]*domain.CartLine, error) {
		return b.inner.Get(ctx, userID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (b *BreakerCache) Set(ctx context.Context, userID int64, lines []*domain.CartLine) error {
	_, err := b.cb.Execute(func() ([]*domain.CartLine, error) {
		return nil, b.inner.Set(ctx, userID, lines)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil
	}
	return err
}

func (b *BreakerCache) Delete(ctx context.Context, userID int64) error {
	_, err := b.cb.Execute(func() ([]*domain.CartLine, error) {
		return nil, b.inner.Delete(ctx, userID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil
	}
	return err
}
