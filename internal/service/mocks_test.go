package service

import (
	"context"
	"sync"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/internal/cache"
	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/events"
	"github.com/fjod/shopease/internal/session"
)

// passAuth hands the stored token straight to fn.
type passAuth struct{}

func (passAuth) Do(_ context.Context, store session.Store, fn func(string) error) error {
	return fn(store.Load().AccessToken)
}

type mockCache struct {
	m       sync.RWMutex
	data    map[string][]byte
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (c *mockCache) Get(_ context.Context, name, owner string) ([]byte, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	b, ok := c.data[name+":"+owner]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return b, nil
}

func (c *mockCache) Set(_ context.Context, name, owner string, payload []byte) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.data[name+":"+owner] = payload
	return nil
}

func (c *mockCache) Delete(_ context.Context, name, owner string) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.data, name+":"+owner)
	c.deletes++
	return nil
}

type recordingNotifier struct {
	m      sync.RWMutex
	events []events.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e events.Event) error {
	n.m.Lock()
	defer n.m.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) types() []events.Type {
	n.m.RLock()
	defer n.m.RUnlock()
	out := make([]events.Type, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

type mockBackend struct {
	m sync.RWMutex

	userInfo     domain.UserInfo
	savedAddrs   []domain.ShippingAddress
	createResult backend.CreateOrderResult
	orders       map[string]domain.Order
	signIn       backend.SignInResult
	products     map[string]domain.Product
	err          error

	createOrderCalls   int
	createAddressCalls int
	lastDraft          domain.OrderDraft
	lastKey            string
	lastToken          string
	statusUpdates      []domain.OrderStatus
	signUps            []backend.SignUpRequest
	contacts           []backend.ContactRequest
}

func (b *mockBackend) GetUserInfo(_ context.Context, token, userID string) (domain.UserInfo, error) {
	b.m.RLock()
	defer b.m.RUnlock()
	if b.err != nil {
		return domain.UserInfo{}, b.err
	}
	info := b.userInfo
	info.ID = userID
	info.ShippingAddresses = append([]domain.ShippingAddress(nil), b.savedAddrs...)
	return info, nil
}

func (b *mockBackend) CreateShippingAddress(_ context.Context, _, _ string, addr domain.ShippingAddress) (domain.ShippingAddress, error) {
	b.m.Lock()
	defer b.m.Unlock()
	b.createAddressCalls++
	if b.err != nil {
		return domain.ShippingAddress{}, b.err
	}
	addr.ID = "addr-new"
	b.savedAddrs = append(b.savedAddrs, addr)
	return addr, nil
}

func (b *mockBackend) CreateOrder(_ context.Context, token, key string, draft domain.OrderDraft) (backend.CreateOrderResult, error) {
	b.m.Lock()
	defer b.m.Unlock()
	b.createOrderCalls++
	b.lastDraft = draft
	b.lastKey = key
	b.lastToken = token
	if b.err != nil {
		return backend.CreateOrderResult{}, b.err
	}
	return b.createResult, nil
}

func (b *mockBackend) ListOrders(context.Context, string, backend.ListQuery) ([]domain.Order, domain.PageMeta, error) {
	b.m.RLock()
	defer b.m.RUnlock()
	if b.err != nil {
		return nil, domain.PageMeta{}, b.err
	}
	var out []domain.Order
	for _, o := range b.orders {
		out = append(out, o)
	}
	return out, domain.PageMeta{Page: 1, Limit: 10, Total: len(out)}, nil
}

func (b *mockBackend) GetOrder(_ context.Context, _, id string) (domain.Order, error) {
	b.m.RLock()
	defer b.m.RUnlock()
	if b.err != nil {
		return domain.Order{}, b.err
	}
	o, ok := b.orders[id]
	if !ok {
		return domain.Order{}, &backend.APIError{Status: 404}
	}
	return o, nil
}

func (b *mockBackend) UpdateOrderStatus(_ context.Context, _, id string, status domain.OrderStatus) (domain.Order, error) {
	b.m.Lock()
	defer b.m.Unlock()
	b.statusUpdates = append(b.statusUpdates, status)
	o := b.orders[id]
	o.Status = status
	b.orders[id] = o
	return o, nil
}

func (b *mockBackend) SignIn(context.Context, backend.SignInRequest) (backend.SignInResult, error) {
	b.m.RLock()
	defer b.m.RUnlock()
	return b.signIn, b.err
}

func (b *mockBackend) SignUp(_ context.Context, in backend.SignUpRequest) error {
	b.m.Lock()
	defer b.m.Unlock()
	b.signUps = append(b.signUps, in)
	return b.err
}

func (b *mockBackend) UpdateUserInfo(_ context.Context, _, id string, in backend.UpdateUserRequest) (domain.UserInfo, error) {
	return domain.UserInfo{ID: id, FullName: in.FullName, Email: in.Email}, b.err
}

func (b *mockBackend) ChangePassword(context.Context, string, string, backend.ChangePasswordRequest) error {
	return b.err
}

func (b *mockBackend) ListUsers(context.Context, string, backend.ListQuery) ([]domain.UserInfo, domain.PageMeta, error) {
	return []domain.UserInfo{{ID: "u1"}}, domain.PageMeta{Page: 1, Limit: 10, Total: 1}, b.err
}

func (b *mockBackend) GetProductBySlug(_ context.Context, slug string) (domain.Product, error) {
	b.m.RLock()
	defer b.m.RUnlock()
	p, ok := b.products[slug]
	if !ok {
		return domain.Product{}, &backend.APIError{Status: 404}
	}
	return p, nil
}

func (b *mockBackend) ListCategories(context.Context) ([]domain.Category, error) {
	return nil, b.err
}

func (b *mockBackend) CreateCategory(_ context.Context, _ string, in backend.CategoryInput) (domain.Category, error) {
	return domain.Category{ID: "c1", Name: in.Name}, b.err
}

func (b *mockBackend) UpdateCategory(_ context.Context, _, id string, in backend.CategoryInput) (domain.Category, error) {
	return domain.Category{ID: id, Name: in.Name}, b.err
}

func (b *mockBackend) ListProducts(context.Context, backend.ListQuery) ([]domain.Product, domain.PageMeta, error) {
	return []domain.Product{{ID: "p1"}}, domain.PageMeta{Page: 1, Limit: 1, Total: 3}, b.err
}

func (b *mockBackend) ListActiveProducts(context.Context, backend.ListQuery) ([]domain.Product, domain.PageMeta, error) {
	return nil, domain.PageMeta{}, b.err
}

func (b *mockBackend) CreateProduct(_ context.Context, _ string, in backend.ProductInput) (domain.Product, error) {
	return domain.Product{ID: "p-new", Name: in.Name}, b.err
}

func (b *mockBackend) UpdateProduct(_ context.Context, _, id string, in backend.ProductInput) (domain.Product, error) {
	return domain.Product{ID: id, Name: in.Name}, b.err
}

func (b *mockBackend) DeleteProductImage(context.Context, string, string, string) error {
	return b.err
}

func (b *mockBackend) SubmitContact(_ context.Context, in backend.ContactRequest) error {
	b.m.Lock()
	defer b.m.Unlock()
	b.contacts = append(b.contacts, in)
	return b.err
}
