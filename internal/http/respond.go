package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/internal/service"
	"github.com/fjod/shopease/internal/session"
	"github.com/fjod/shopease/pkg/circuitbreaker"
)

type ErrorResponse struct {
	Error    string               `json:"error"`
	Code     string               `json:"code,omitempty"`
	Details  string               `json:"details,omitempty"`
	Redirect string               `json:"redirect,omitempty"`
	Fields   []service.FieldError `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondServiceError maps service, session and backend errors to a response.
// Backend messages reach the client through backend.UserMessage.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "Please fix the highlighted fields",
			Code:   "validation_failed",
			Fields: verr.Fields,
		})
		return
	}

	var expired *session.ExpiredError
	if errors.As(err, &expired) {
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:    "Your session has expired, please sign in again",
			Code:     "session_expired",
			Redirect: expired.Redirect,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Please sign in", Code: "unauthorized", Redirect: session.LoginPath})
	case errors.Is(err, service.ErrAddressRequired):
		respondError(w, http.StatusBadRequest, "address_required", "Please select a shipping address")
	case errors.Is(err, service.ErrUnknownPaymentMethod):
		respondError(w, http.StatusBadRequest, "invalid_payment_method", "Please choose a valid payment method")
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "Your cart is empty")
	case errors.Is(err, service.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", "This product is out of stock")
	case errors.Is(err, service.ErrQuantityLimit):
		respondError(w, http.StatusConflict, "quantity_limit", "Maximum quantity reached for this item")
	case errors.Is(err, service.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Item not found")
	case errors.Is(err, service.ErrIllegalTransition):
		respondJSON(w, http.StatusConflict, ErrorResponse{Error: "This order can no longer be changed", Code: "illegal_transition", Details: err.Error()})
	case errors.Is(err, service.ErrMissingPaymentURL):
		respondError(w, http.StatusBadGateway, "payment_unavailable", "Payment could not be started, please try again")
	case errors.Is(err, circuitbreaker.ErrOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "backend_unavailable", backend.UserMessage(err))
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", backend.UserMessage(err))
	default:
		respondBackendError(w, err)
	}
}

func respondBackendError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		log.Printf("unhandled error: %v", err)
		respondError(w, http.StatusBadGateway, "backend_error", backend.UserMessage(err))
		return
	}

	status := apiErr.Status
	code := "backend_error"
	switch {
	case status == http.StatusUnauthorized:
		code = "unauthorized"
	case status == http.StatusForbidden:
		code = "forbidden"
	case status == http.StatusNotFound:
		code = "not_found"
	case status == http.StatusConflict:
		code = "conflict"
	case status >= 500:
		status = http.StatusBadGateway
	case status < 400:
		status = http.StatusBadGateway
	default:
		code = "rejected"
	}
	respondError(w, status, code, backend.UserMessage(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
