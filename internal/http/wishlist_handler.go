package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/service"
	"github.com/go-chi/chi/v5"
)

type WishlistHandler struct {
	wishlist *service.WishlistService
	cart     *service.CartService
	timeout  time.Duration
}

func NewWishlistHandler(wishlist *service.WishlistService, cart *service.CartService, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, cart: cart, timeout: timeout}
}

type WishlistResponse struct {
	Items []domain.WishlistItem `json:"items"`
	Count int                   `json:"count"`
}

type ToggleResponse struct {
	WishlistResponse
	OnWishlist bool `json:"on_wishlist"`
}

func wishlistResponse(items []domain.WishlistItem) WishlistResponse {
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return WishlistResponse{Items: items, Count: len(items)}
}

func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.wishlist.List(ctx, ownerID(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wishlistResponse(items))
}

func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var item domain.WishlistItem
	if !decodeJSON(w, r, &item) {
		return
	}

	present, items, err := h.wishlist.Toggle(ctx, ownerID(r.Context()), item)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ToggleResponse{WishlistResponse: wishlistResponse(items), OnWishlist: present})
}

func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.wishlist.Remove(ctx, ownerID(r.Context()), chi.URLParam(r, "product_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wishlistResponse(items))
}

func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.wishlist.MoveToCart(ctx, ownerID(r.Context()), chi.URLParam(r, "product_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.cart.Price(items))
}
