package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/service"
)

type AuthHandler struct {
	accounts *service.AccountService
	timeout  time.Duration
}

func NewAuthHandler(accounts *service.AccountService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{accounts: accounts, timeout: timeout}
}

// LoginResponse never carries the tokens; they travel as HttpOnly cookies.
type LoginResponse struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	creds, err := h.accounts.Login(ctx, sessionStore(r.Context()), guestID(r.Context()), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, LoginResponse{ID: creds.UserID, Role: creds.Role})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accounts.Register(ctx, req); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful, please sign in"})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.accounts.Logout(sessionStore(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	info, err := h.accounts.Profile(ctx, sessionStore(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var upd service.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	info, err := h.accounts.UpdateProfile(ctx, sessionStore(r.Context()), upd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accounts.ChangePassword(ctx, sessionStore(r.Context()), req); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
