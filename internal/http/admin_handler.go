package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// AdminHandler serves the dashboard: catalog writes and the user directory.
// Order status changes go through OrdersHandler.
type AdminHandler struct {
	catalog   *service.CatalogService
	accounts  *service.AccountService
	timeout   time.Duration
	maxUpload int64
}

const defaultMaxUpload = 10 << 20

func NewAdminHandler(catalog *service.CatalogService, accounts *service.AccountService, timeout time.Duration, maxUpload int64) *AdminHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &AdminHandler{catalog: catalog, accounts: accounts, timeout: timeout, maxUpload: maxUpload}
}

type DeleteImageRequestDTO struct {
	ImageURL string `json:"image_url"`
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, "")
}

func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, chi.URLParam(r, "category_id"))
}

func (h *AdminHandler) saveCategory(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll()

	in := backend.CategoryInput{
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
	}
	uploads, closeAll, err := openUploads(form, "logo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}
	defer closeAll()
	if len(uploads) > 0 {
		in.Logo = &uploads[0]
	}

	store := sessionStore(r.Context())
	if id == "" {
		category, err := h.catalog.CreateCategory(ctx, store, in)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, category)
		return
	}

	category, err := h.catalog.UpdateCategory(ctx, store, id, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "")
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, chi.URLParam(r, "product_id"))
}

func (h *AdminHandler) saveProduct(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll()

	in, err := productInput(form)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	uploads, closeAll, err := openUploads(form, "images")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}
	defer closeAll()
	in.Images = uploads

	store := sessionStore(r.Context())
	if id == "" {
		product, err := h.catalog.CreateProduct(ctx, store, in)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, product)
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, store, id, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) DeleteProductImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req DeleteImageRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.catalog.DeleteProductImage(ctx, sessionStore(r.Context()), chi.URLParam(r, "product_id"), req.ImageURL)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.accounts.ListUsers(ctx, sessionStore(r.Context()), backend.ParseListQuery(r.URL.Query()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	info, err := h.accounts.UserByID(ctx, sessionStore(r.Context()), chi.URLParam(r, "user_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var upd service.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	info, err := h.accounts.UpdateUser(ctx, sessionStore(r.Context()), chi.URLParam(r, "user_id"), upd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (h *AdminHandler) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "too_large", "upload is too large")
			return nil, false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form data")
		return nil, false
	}
	return r.MultipartForm, true
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// formList accepts both repeated fields and one comma separated field.
func formList(form *multipart.Form, key string) []string {
	var out []string
	for _, v := range form.Value[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func productInput(form *multipart.Form) (backend.ProductInput, error) {
	in := backend.ProductInput{
		Name:        formValue(form, "name"),
		Slug:        formValue(form, "slug"),
		Category:    formValue(form, "category"),
		Description: formValue(form, "description"),
		Features:    formList(form, "features"),
		Colors:      formList(form, "color"),
	}
	if p := formValue(form, "price"); p != "" {
		price, err := decimal.NewFromString(p)
		if err != nil {
			return in, errors.New("price must be a number")
		}
		in.Price = price
	}
	if s := formValue(form, "stock"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil {
			return in, errors.New("stock must be a whole number")
		}
		in.Stock = stock
	}
	return in, nil
}

func openUploads(form *multipart.Form, field string) ([]backend.Upload, func(), error) {
	var (
		uploads []backend.Upload
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	for _, fh := range form.File[field] {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		closers = append(closers, f)
		uploads = append(uploads, backend.Upload{Filename: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}
