package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webshop/storefront/internal/cache"
	"github.com/webshop/storefront/internal/domain"
)

type mockStore struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	products map[int64]*domain.Product
	lines    map[int64]*domain.CartLine
	nextID   int64
	err      error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:    make(map[int64]*domain.User),
		products: make(map[int64]*domain.Product),
		lines:    make(map[int64]*domain.CartLine),
		nextID:   1,
	}
}

func (m *mockStore) GetActiveUser(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[id]
	if !ok || !user.IsActive {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (m *mockStore) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	product, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (m *mockStore) GetCartLines(_ context.Context, userID int64) ([]*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var lines []*domain.CartLine
	for _, line := range m.lines {
		if line.UserID == userID {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (m *mockStore) GetCartLineByProduct(_ context.Context, userID, productID int64) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.lines {
		if line.UserID == userID && line.ProductID == productID {
			return line, nil
		}
	}
	return nil, domain.ErrCartLineNotFound
}

func (m *mockStore) GetCartLine(_ context.Context, userID, lineID int64) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[lineID]
	if !ok || line.UserID != userID {
		return nil, domain.ErrCartLineNotFound
	}
	return line, nil
}

func (m *mockStore) UpsertCartLine(_ context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.lines {
		if line.UserID == userID && line.ProductID == productID {
			line.Quantity += quantity
			line.UpdatedAt = time.Now()
			return line, nil
		}
	}
	line := &domain.CartLine{
		ID:        m.nextID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.nextID++
	m.lines[line.ID] = line
	return line, nil
}

func (m *mockStore) UpdateCartLineQuantity(_ context.Context, userID, lineID int64, quantity int) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[lineID]
	if !ok || line.UserID != userID {
		return nil, domain.ErrCartLineNotFound
	}
	line.Quantity = quantity
	line.UpdatedAt = time.Now()
	return line, nil
}

func (m *mockStore) DeleteCartLine(_ context.Context, userID, lineID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[lineID]
	if !ok || line.UserID != userID {
		return false, nil
	}
	delete(m.lines, lineID)
	return true, nil
}

type mockCache struct {
	mu      sync.Mutex
	lines   map[int64][]*domain.CartLine
	deletes int
	sets    int
	gets    int
}

func newMockCache() *mockCache {
	return &mockCache{lines: make(map[int64][]*domain.CartLine)}
}

func (m *mockCache) Get(_ context.Context, userID int64) ([]*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	lines, ok := m.lines[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return lines, nil
}

func (m *mockCache) Set(_ context.Context, userID int64, lines []*domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.lines[userID] = lines
	return nil
}

func (m *mockCache) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.lines, userID)
	return nil
}

func setupCartService() (*CartService, *mockStore, *mockCache) {
	store := newMockStore()
	store.users[1] = &domain.User{ID: 1, Email: "buyer@example.com", IsActive: true}
	store.users[2] = &domain.User{ID: 2, Email: "inactive@example.com", IsActive: false}
	store.products[10] = &domain.Product{ID: 10, Name: "Laptop", Stock: 10}
	store.products[20] = &domain.Product{ID: 20, Name: "Mouse", Stock: 3}
	c := newMockCache()
	return NewCartService(store, c), store, c
}

func TestAddItem_CreatesLine(t *testing.T) {
	svc, _, _ := setupCartService()

	line, err := svc.AddItem(context.Background(), 1, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, int64(10), line.ProductID)
}

func TestAddItem_MergesQuantities(t *testing.T) {
	svc, _, _ := setupCartService()

	_, err := svc.AddItem(context.Background(), 1, 10, 2)
	require.NoError(t, err)

	line, err := svc.AddItem(context.Background(), 1, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)

	lines, err := svc.ListCart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
}

func TestAddItem_InsufficientStock(t *testing.T) {
	svc, _, _ := setupCartService()

	_, err := svc.AddItem(context.Background(), 1, 10, 11)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Laptop", stockErr.ProductName)
	assert.Equal(t, 11, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)
	assert.Zero(t, stockErr.InCart)
}

func TestAddItem_MergedTotalExceedsStock(t *testing.T) {
	svc, store, _ := setupCartService()

	_, err := svc.AddItem(context.Background(), 1, 10, 8)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), 1, 10, 5)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 8, stockErr.InCart)
	assert.Equal(t, 10, stockErr.Available)
	// Merged failure carries a different message than the plain one.
	assert.Contains(t, stockErr.Error(), "already in cart")

	// The existing line is untouched.
	line, err := store.GetCartLineByProduct(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 8, line.Quantity)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc, _, _ := setupCartService()

	_, err := svc.AddItem(context.Background(), 1, 999, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestAddItem_InactiveUser(t *testing.T) {
	svc, _, _ := setupCartService()

	_, err := svc.AddItem(context.Background(), 2, 10, 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.AddItem(context.Background(), 42, 10, 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateQuantity_AtStockBoundary(t *testing.T) {
	svc, _, _ := setupCartService()

	line, err := svc.AddItem(context.Background(), 1, 20, 1)
	require.NoError(t, err)

	// quantity == stock is allowed
	updated, err := svc.UpdateQuantity(context.Background(), 1, line.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	_, err = svc.UpdateQuantity(context.Background(), 1, line.ID, 4)
	var stockErr *domain.InsufficientStockError
	assert.ErrorAs(t, err, &stockErr)
}

func TestUpdateQuantity_ForeignLineLooksMissing(t *testing.T) {
	svc, _, _ := setupCartService()

	line, err := svc.AddItem(context.Background(), 1, 10, 1)
	require.NoError(t, err)

	// Another user sees the same error as for a nonexistent line.
	_, errForeign := svc.UpdateQuantity(context.Background(), 2, line.ID, 2)
	_, errMissing := svc.UpdateQuantity(context.Background(), 1, 9999, 2)
	assert.ErrorIs(t, errForeign, domain.ErrCartLineNotFound)
	assert.ErrorIs(t, errMissing, domain.ErrCartLineNotFound)
}

func TestRemoveItem_Idempotent(t *testing.T) {
	svc, _, _ := setupCartService()

	line, err := svc.AddItem(context.Background(), 1, 10, 1)
	require.NoError(t, err)

	removed, err := svc.RemoveItem(context.Background(), 1, line.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveItem(context.Background(), 1, line.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListCart_UsesCache(t *testing.T) {
	svc, store, c := setupCartService()

	cached := []*domain.CartLine{{ID: 7, UserID: 1, ProductID: 10, Quantity: 4}}
	require.NoError(t, c.Set(context.Background(), 1, cached))
	store.err = assert.AnError // repo must not be hit on a cache hit

	lines, err := svc.ListCart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(7), lines[0].ID)
}

func TestMutationsInvalidateCache(t *testing.T) {
	svc, _, c := setupCartService()

	line, err := svc.AddItem(context.Background(), 1, 10, 2)
	require.NoError(t, err)
	_, err = svc.UpdateQuantity(context.Background(), 1, line.ID, 3)
	require.NoError(t, err)
	removed, err := svc.RemoveItem(context.Background(), 1, line.ID)
	require.NoError(t, err)
	require.True(t, removed)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, 3, c.deletes)
}
