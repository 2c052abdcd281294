package service

import (
	"errors"
	"strings"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrAddressRequired      = errors.New("shipping address is required")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrOutOfStock           = errors.New("product is out of stock")
	ErrQuantityLimit        = errors.New("maximum quantity reached")
	ErrItemNotFound         = errors.New("item not found")
	ErrMissingPaymentURL    = errors.New("payment gateway returned no payment url")
	ErrIllegalTransition    = errors.New("order status change not allowed")
	ErrNotAuthenticated     = errors.New("not signed in")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed. Nothing was sent upstream.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "invalid fields: " + strings.Join(names, ", ")
}
