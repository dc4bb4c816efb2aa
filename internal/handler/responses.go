package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nouridin/supershop/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgInvalidRequestError = "Invalid request. Please check your inputs."

	ErrMsgShopNotFoundError      = "Shop not found"
	ErrMsgItemNotFoundError      = "Item not found in shop"
	ErrMsgLocationOccupiedError  = "There is already a shop at that location"
	ErrMsgNotShopOwnerError      = "You don't own that shop"
	ErrMsgShopRemovedError       = "That shop no longer exists"
	ErrMsgItemUnavailableError   = "Item is not available for purchase"
	ErrMsgInsufficientStockError = "Not enough stock"
	ErrMsgInsufficientFundsErr   = "You can't afford that"
	ErrMsgNoRevenueError         = "No revenue to collect"
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP
// responses, converting internal service errors to status codes and messages
// users can act upon.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrShopNotFound):
		return http.StatusNotFound, ErrMsgShopNotFoundError
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, ErrMsgItemNotFoundError
	case errors.Is(err, domain.ErrLocationOccupied):
		return http.StatusConflict, ErrMsgLocationOccupiedError
	case errors.Is(err, domain.ErrNotShopOwner):
		return http.StatusForbidden, ErrMsgNotShopOwnerError
	case errors.Is(err, domain.ErrShopRemoved):
		return http.StatusGone, ErrMsgShopRemovedError
	case errors.Is(err, domain.ErrItemUnavailable):
		return http.StatusConflict, ErrMsgItemUnavailableError
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, ErrMsgInsufficientStockError
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusConflict, ErrMsgInsufficientFundsErr
	case errors.Is(err, domain.ErrNoRevenue):
		return http.StatusConflict, ErrMsgNoRevenueError
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequestError
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
