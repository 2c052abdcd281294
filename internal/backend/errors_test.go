package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/fjod/shopease/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"backend message wins", &APIError{Status: 400, Message: "Stock too low", Messages: []string{"x"}}, "Stock too low"},
		{"field messages", &APIError{Status: 400, Messages: []string{"a", "b"}}, "a, b"},
		{"conflict fallback", &APIError{Status: http.StatusConflict}, "User already exists with this email"},
		{"unauthorized fallback", &APIError{Status: http.StatusUnauthorized}, "Invalid credentials"},
		{"bad request fallback", &APIError{Status: http.StatusBadRequest}, "Invalid input data"},
		{"wrapped", fmt.Errorf("load: %w", &APIError{Status: http.StatusNotFound}), "User not found"},
		{"breaker open", circuitbreaker.ErrOpen, "Service is temporarily unavailable, please try again shortly"},
		{"timeout", fmt.Errorf("get: %w", context.DeadlineExceeded), "The request timed out, please try again"},
		{"anything else", errors.New("boom"), "Failed to update data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestCountsAsSuccess(t *testing.T) {
	assert.True(t, countsAsSuccess(nil))
	assert.True(t, countsAsSuccess(context.Canceled))
	assert.True(t, countsAsSuccess(&APIError{Status: 404}))
	assert.False(t, countsAsSuccess(&APIError{Status: 503}))
	assert.False(t, countsAsSuccess(errors.New("dial tcp: refused")))
}
