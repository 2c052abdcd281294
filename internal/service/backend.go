package service

import (
	"context"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/session"
)

// Authenticator runs a backend call with the session's access token,
// refreshing it once on a 401.
type Authenticator interface {
	Do(ctx context.Context, store session.Store, fn func(accessToken string) error) error
}

type AddressBackend interface {
	GetUserInfo(ctx context.Context, token, userID string) (domain.UserInfo, error)
	CreateShippingAddress(ctx context.Context, token, userID string, addr domain.ShippingAddress) (domain.ShippingAddress, error)
}

type OrderBackend interface {
	CreateOrder(ctx context.Context, token, idempotencyKey string, draft domain.OrderDraft) (backend.CreateOrderResult, error)
	ListOrders(ctx context.Context, token string, q backend.ListQuery) ([]domain.Order, domain.PageMeta, error)
	GetOrder(ctx context.Context, token, id string) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, token, id string, status domain.OrderStatus) (domain.Order, error)
}

type AccountBackend interface {
	SignIn(ctx context.Context, in backend.SignInRequest) (backend.SignInResult, error)
	SignUp(ctx context.Context, in backend.SignUpRequest) error
	GetUserInfo(ctx context.Context, token, userID string) (domain.UserInfo, error)
	UpdateUserInfo(ctx context.Context, token, userID string, in backend.UpdateUserRequest) (domain.UserInfo, error)
	ChangePassword(ctx context.Context, token, userID string, in backend.ChangePasswordRequest) error
	ListUsers(ctx context.Context, token string, q backend.ListQuery) ([]domain.UserInfo, domain.PageMeta, error)
}

type CatalogBackend interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, token string, in backend.CategoryInput) (domain.Category, error)
	UpdateCategory(ctx context.Context, token, id string, in backend.CategoryInput) (domain.Category, error)
	ListProducts(ctx context.Context, q backend.ListQuery) ([]domain.Product, domain.PageMeta, error)
	ListActiveProducts(ctx context.Context, q backend.ListQuery) ([]domain.Product, domain.PageMeta, error)
	GetProductBySlug(ctx context.Context, slug string) (domain.Product, error)
	CreateProduct(ctx context.Context, token string, in backend.ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, token, id string, in backend.ProductInput) (domain.Product, error)
	DeleteProductImage(ctx context.Context, token, productID, imageURL string) error
	SubmitContact(ctx context.Context, in backend.ContactRequest) error
}

func userID(store session.Store) (string, error) {
	id := store.Load().UserID
	if id == "" {
		return "", ErrNotAuthenticated
	}
	return id, nil
}
