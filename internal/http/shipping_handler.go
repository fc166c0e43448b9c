package http

import (
	"encoding/json"
	"net/http"

	"github.com/webshop/storefront/internal/shipping"
)

type ShippingHandler struct{}

func NewShippingHandler() *ShippingHandler {
	return &ShippingHandler{}
}

type EstimateRequestDTO struct {
	Address string  `json:"address"`
	Weight  float64 `json:"weight"`
}

func (h *ShippingHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	options, err := shipping.Estimate(req.Address, req.Weight)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, options)
}
