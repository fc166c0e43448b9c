package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webshop/storefront/internal/domain"
)

type cartAPIMock struct {
	line    *domain.CartLine
	lines   []*domain.CartLine
	removed bool
	err     error
}

func (m cartAPIMock) AddItem(context.Context, int64, int64, int) (*domain.CartLine, error) {
	return m.line, m.err
}

func (m cartAPIMock) UpdateQuantity(context.Context, int64, int64, int) (*domain.CartLine, error) {
	return m.line, m.err
}

func (m cartAPIMock) RemoveItem(context.Context, int64, int64) (bool, error) {
	return m.removed, m.err
}

func (m cartAPIMock) ListCart(context.Context, int64) ([]*domain.CartLine, error) {
	return m.lines, m.err
}

func newCartRouter(mock cartAPIMock) *chi.Mux {
	handler := NewCartHandler(mock)
	r := chi.NewRouter()
	r.Use(MockAuthMiddleware)
	r.Get("/cart", handler.GetCart)
	r.Post("/cart/items", handler.AddItem)
	r.Put("/cart/items/{line_id}", handler.UpdateQuantity)
	r.Delete("/cart/items/{line_id}", handler.RemoveItem)
	return r
}

func TestAddItemHandler_Created(t *testing.T) {
	mock := cartAPIMock{line: &domain.CartLine{ID: 1, UserID: 1, ProductID: 10, Quantity: 2}}
	router := newCartRouter(mock)

	body, _ := json.Marshal(AddItemRequestDTO{ProductID: 10, Quantity: 2})
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var line domain.CartLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &line))
	assert.Equal(t, int64(10), line.ProductID)
	assert.Equal(t, 2, line.Quantity)
}

func TestAddItemHandler_ValidationErrors(t *testing.T) {
	router := newCartRouter(cartAPIMock{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"zero product", `{"product_id":0,"quantity":1}`},
		{"zero quantity", `{"product_id":10,"quantity":0}`},
		{"quantity over limit", `{"product_id":10,"quantity":100}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAddItemHandler_InsufficientStock(t *testing.T) {
	mock := cartAPIMock{err: &domain.InsufficientStockError{
		ProductID:   10,
		ProductName: "Laptop",
		Requested:   5,
		Available:   2,
	}}
	router := newCartRouter(mock)

	body, _ := json.Marshal(AddItemRequestDTO{ProductID: 10, Quantity: 5})
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "insufficient_stock", resp.Code)
	assert.Contains(t, resp.Details, "Laptop")
}

func TestUpdateQuantityHandler_NotFound(t *testing.T) {
	router := newCartRouter(cartAPIMock{err: domain.ErrCartLineNotFound})

	req := httptest.NewRequest(http.MethodPut, "/cart/items/7", bytes.NewReader([]byte(`{"quantity":3}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveItemHandler_ReportsSuccessFlag(t *testing.T) {
	for _, removed := range []bool{true, false} {
		router := newCartRouter(cartAPIMock{removed: removed})

		req := httptest.NewRequest(http.MethodDelete, "/cart/items/7", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp RemoveItemResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, removed, resp.Success)
	}
}

func TestGetCartHandler_EmptyCartIsAnArray(t *testing.T) {
	router := newCartRouter(cartAPIMock{})

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
