package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bkode/storefront/internal/gateway"
	"github.com/bkode/storefront/internal/repository"
	"github.com/bkode/storefront/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("err", err))
	}
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: details,
	})
}

// respondServiceError maps domain sentinels onto the HTTP taxonomy. Anything
// unrecognized is an internal error with the details withheld.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		respondError(w, http.StatusBadRequest, "insufficient_stock", err.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, repository.ErrCartLineNotFound):
		respondError(w, http.StatusNotFound, "cart_line_not_found", "item not found in cart")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, repository.ErrProductReferenced):
		respondError(w, http.StatusConflict, "product_referenced", "product is still referenced by carts")
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		respondError(w, http.StatusBadGateway, "gateway_unavailable", "payment gateway unavailable")
	default:
		slog.Error("internal error", slog.Any("err", err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
