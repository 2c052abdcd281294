package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fjod/shopease/pkg/circuitbreaker"
)

var (
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrForbidden    = errors.New("backend: forbidden")
	ErrNotFound     = errors.New("backend: not found")
	ErrConflict     = errors.New("backend: conflict")
	ErrUnavailable  = errors.New("backend: unavailable")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status   int
	Message  string
	Messages []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && len(e.Messages) > 0 {
		msg = strings.Join(e.Messages, ", ")
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, msg)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusConflict:
		return ErrConflict
	case e.Status >= 500:
		return ErrUnavailable
	}
	return nil
}

// UserMessage turns any client error into text fit for a toast. The backend's
// own message wins, then its field messages, then a fallback per status.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if len(apiErr.Messages) > 0 {
			return strings.Join(apiErr.Messages, ", ")
		}
		switch apiErr.Status {
		case http.StatusConflict:
			return "User already exists with this email"
		case http.StatusUnauthorized:
			return "Invalid credentials"
		case http.StatusNotFound:
			return "User not found"
		case http.StatusBadRequest:
			return "Invalid input data"
		}
	}

	switch {
	case errors.Is(err, circuitbreaker.ErrOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return "Service is temporarily unavailable, please try again shortly"
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out, please try again"
	}
	return "Failed to update data"
}

// countsAsSuccess keeps client-side errors from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status < 500
	}
	return false
}
