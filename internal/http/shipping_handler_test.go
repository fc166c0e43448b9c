package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShippingRouter() *chi.Mux {
	handler := NewShippingHandler()
	r := chi.NewRouter()
	r.Post("/shipping/estimate", handler.Estimate)
	return r
}

func postEstimate(router *chi.Mux, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/shipping/estimate", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEstimateHandler_ReturnsSortedOptions(t *testing.T) {
	router := newShippingRouter()

	rec := postEstimate(router, `{"address":"123 Local St","weight":2.5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var options []struct {
		Method        string `json:"method"`
		Cost          string `json:"cost"`
		EstimatedDays int    `json:"estimated_days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &options))
	require.Len(t, options, 3)
	assert.Equal(t, "Standard", options[0].Method)
	for _, opt := range options {
		assert.GreaterOrEqual(t, opt.EstimatedDays, 1)
	}
}

func TestEstimateHandler_InvalidInput(t *testing.T) {
	router := newShippingRouter()

	assert.Equal(t, http.StatusBadRequest, postEstimate(router, `{"address":"","weight":5}`).Code)
	assert.Equal(t, http.StatusBadRequest, postEstimate(router, `{"address":"123 Main St","weight":0}`).Code)
	assert.Equal(t, http.StatusBadRequest, postEstimate(router, `{`).Code)
}
