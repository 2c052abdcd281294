package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/pricing"
	"github.com/fjod/shopease/internal/service"
)

type CheckoutHandler struct {
	checkout  *service.CheckoutService
	addresses *service.AddressService
	timeout   time.Duration
}

func NewCheckoutHandler(checkout *service.CheckoutService, addresses *service.AddressService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, addresses: addresses, timeout: timeout}
}

type CheckoutPage struct {
	Items     []domain.CartLineItem    `json:"items"`
	Totals    pricing.Totals           `json:"totals"`
	Addresses []domain.ShippingAddress `json:"addresses"`
	Selected  int                      `json:"selected"`
}

// SubmitOrderRequestDTO takes either a full address or the index of a saved one.
type SubmitOrderRequestDTO struct {
	Address       *domain.ShippingAddress `json:"address"`
	AddressIndex  *int                    `json:"address_index"`
	PaymentMethod string                  `json:"payment_method"`
}

func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sum, err := h.checkout.Preview(ctx, ownerID(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	book, err := h.addresses.Load(ctx, sessionStore(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutPage{
		Items:     sum.Items,
		Totals:    sum.Totals,
		Addresses: book.Addresses,
		Selected:  book.Selected,
	})
}

func (h *CheckoutHandler) SaveAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var addr domain.ShippingAddress
	if !decodeJSON(w, r, &addr) {
		return
	}

	book, err := h.addresses.Save(ctx, sessionStore(r.Context()), addr)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, book)
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SubmitOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	store := sessionStore(r.Context())

	addr := req.Address
	if addr == nil && req.AddressIndex != nil {
		book, err := h.addresses.Load(ctx, store)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if a, ok := service.Select(book.Addresses, *req.AddressIndex); ok {
			addr = &a
		}
	}

	res, err := h.checkout.Submit(ctx, store, ownerID(r.Context()), service.SubmitRequest{
		Address:       addr,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}
