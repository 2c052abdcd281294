package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/internal/cache"
	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/events"
	"github.com/fjod/shopease/internal/pricing"
	"github.com/fjod/shopease/internal/repository"
	"github.com/fjod/shopease/internal/service"
	"github.com/fjod/shopease/internal/session"
	"github.com/fjod/shopease/pkg/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	srv      *httptest.Server
	client   *http.Client
	hub      *events.Hub
	owners   *session.OwnerSigner
	upstream *atomic.Int32
}

// newHarness runs the storefront against a fake backend served by upstream.
func newHarness(t *testing.T, upstream http.HandlerFunc) *harness {
	t.Helper()

	var hits atomic.Int32
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		upstream(w, r)
	}))
	t.Cleanup(up.Close)

	client, err := backend.New(up.URL+"/api/v1", backend.WithHTTPClient(up.Client()))
	require.NoError(t, err)

	mgr := session.NewManager(client, nil)
	repo := repository.NewMemoryRepository()
	calc := pricing.NewCalculator(pricing.DefaultConfig())
	hub := events.NewHub()
	owners, err := session.NewOwnerSigner([]byte("owner-test-key"), time.Hour)
	require.NoError(t, err)

	cart := service.NewCartService(repo, cache.NopCache{}, calc, hub, nil)
	router := NewRouter(Deps{
		Cart:           cart,
		Wishlist:       service.NewWishlistService(repo, cache.NopCache{}, cart, hub, nil),
		Checkout:       service.NewCheckoutService(cart, client, mgr, calc, hub, nil),
		Addresses:      service.NewAddressService(client, mgr, nil),
		Orders:         service.NewOrderService(client, mgr, nil),
		Accounts:       service.NewAccountService(client, mgr, cart, nil),
		Catalog:        service.NewCatalogService(client, mgr, nil),
		Events:         hub,
		Owners:         owners,
		Metrics:        metrics.NewServerMetrics("test", prometheus.NewRegistry()),
		RequestTimeout: 5 * time.Second,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		srv:      srv,
		client:   &http.Client{Jar: jar, Timeout: 10 * time.Second},
		hub:      hub,
		owners:   owners,
		upstream: &hits,
	}
}

func (h *harness) signIn(t *testing.T, userID string, role domain.Role) {
	t.Helper()
	u, err := url.Parse(h.srv.URL)
	require.NoError(t, err)
	owner, err := h.owners.Sign(userID, role, time.Now())
	require.NoError(t, err)
	h.client.Jar.SetCookies(u, []*http.Cookie{
		{Name: cookieAccess, Value: testToken(t, userID, role, time.Now().Add(time.Hour)), Path: "/"},
		{Name: cookieRefresh, Value: "refresh-" + userID, Path: "/"},
		{Name: cookieUserID, Value: userID, Path: "/"},
		{Name: cookieRole, Value: string(role), Path: "/"},
		{Name: cookieOwner, Value: owner, Path: "/"},
	})
}

// visitor is a second browser against the same storefront.
func (h *harness) visitor(t *testing.T, cookies ...*http.Cookie) *harness {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(h.srv.URL)
	require.NoError(t, err)
	jar.SetCookies(u, cookies)

	other := *h
	other.client = &http.Client{Jar: jar, Timeout: 10 * time.Second}
	return &other
}

func (h *harness) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func testToken(t *testing.T, userID string, role domain.Role, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   userID,
		"role": string(role),
		"exp":  exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func envelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	envelope(w, http.StatusNotFound, `{"success":false,"message":"not found"}`)
}

func mugRequest(qty int) map[string]any {
	return map[string]any{
		"product_id": "p1",
		"name":       "Mug",
		"unit_price": "12.50",
		"quantity":   qty,
		"stock":      20,
	}
}

func validAddress() map[string]any {
	return map[string]any{
		"fullName":   "Ada Lovelace",
		"phone":      "01700000000",
		"street":     "1 Analytical Way",
		"city":       "Dhaka",
		"state":      "Dhaka",
		"postalCode": "1207",
		"country":    "Bangladesh",
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t, notFound)

	resp := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decodeBody[map[string]string](t, resp))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestCart_GuestFlow(t *testing.T) {
	h := newHarness(t, notFound)

	resp := h.do(t, http.MethodPost, "/api/v1/cart/items", mugRequest(2))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sum := decodeBody[service.CartSummary](t, resp)
	require.Len(t, sum.Items, 1)
	assert.True(t, sum.Totals.Subtotal.Equal(decimal.NewFromInt(25)))
	assert.True(t, sum.Totals.Shipping.Equal(decimal.NewFromInt(10)))
	assert.True(t, sum.Totals.Tax.Equal(decimal.NewFromInt(2)))
	assert.True(t, sum.Totals.Total.Equal(decimal.NewFromInt(37)))

	u, _ := url.Parse(h.srv.URL)
	var guest string
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == cookieGuest {
			guest = c.Value
		}
	}
	assert.NotEmpty(t, guest, "guest cookie should be issued")

	resp = h.do(t, http.MethodPatch, "/api/v1/cart/items/p1", map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum = decodeBody[service.CartSummary](t, resp)
	assert.Equal(t, 5, sum.Items[0].Quantity)

	resp = h.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum = decodeBody[service.CartSummary](t, resp)
	require.Len(t, sum.Items, 1)
	assert.Equal(t, 5, sum.Items[0].Quantity)

	resp = h.do(t, http.MethodDelete, "/api/v1/cart/items/p1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum = decodeBody[service.CartSummary](t, resp)
	assert.Empty(t, sum.Items)

	assert.Zero(t, h.upstream.Load(), "guest cart never calls the backend")
}

func TestCart_ForgedCookiesGetTheirOwnCart(t *testing.T) {
	h := newHarness(t, notFound)
	h.signIn(t, "victim", domain.RoleCustomer)

	resp := h.do(t, http.MethodPost, "/api/v1/cart/items", mugRequest(2))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	forgedID := h.visitor(t,
		&http.Cookie{Name: cookieUserID, Value: "victim", Path: "/"},
		&http.Cookie{Name: cookieRole, Value: string(domain.RoleCustomer), Path: "/"},
	)
	resp = forgedID.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[service.CartSummary](t, resp).Items)

	resp = forgedID.do(t, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	forgedSid := h.visitor(t, &http.Cookie{Name: cookieGuest, Value: "victim", Path: "/"})
	resp = forgedSid.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Empty(t, decodeBody[service.CartSummary](t, resp).Items)

	resp = h.do(t, http.MethodGet, "/api/v1/cart", nil)
	sum := decodeBody[service.CartSummary](t, resp)
	require.Len(t, sum.Items, 1, "the signed-in owner keeps their cart")
	assert.Equal(t, 2, sum.Items[0].Quantity)
}

func TestCart_AddValidation(t *testing.T) {
	h := newHarness(t, notFound)

	resp := h.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "validation_failed", body.Code)
	assert.NotEmpty(t, body.Fields)

	req := mugRequest(1)
	req["stock"] = 0
	resp = h.do(t, http.MethodPost, "/api/v1/cart/items", req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "out_of_stock", decodeBody[ErrorResponse](t, resp).Code)
}

func TestWishlist_ToggleAndMove(t *testing.T) {
	h := newHarness(t, notFound)

	item := map[string]any{"product_id": "p9", "name": "Lamp", "price": "30", "stock": 3}
	resp := h.do(t, http.MethodPost, "/api/v1/wishlist/toggle", item)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toggled := decodeBody[ToggleResponse](t, resp)
	assert.True(t, toggled.OnWishlist)
	assert.Equal(t, 1, toggled.Count)

	resp = h.do(t, http.MethodPost, "/api/v1/wishlist/items/p9/move-to-cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decodeBody[service.CartSummary](t, resp)
	require.Len(t, sum.Items, 1)
	assert.Equal(t, "p9", sum.Items[0].ProductID)

	resp = h.do(t, http.MethodGet, "/api/v1/wishlist", nil)
	assert.Equal(t, 0, decodeBody[WishlistResponse](t, resp).Count)
}

func TestGuard_ProtectedRoutes(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, `{"success":true,"data":[],"meta":{"page":1,"limit":10,"total":0}}`)
	})

	resp := h.do(t, http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, session.LoginPath, decodeBody[ErrorResponse](t, resp).Redirect)

	resp = h.do(t, http.MethodGet, "/api/v1/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, session.AdminLoginPath, decodeBody[ErrorResponse](t, resp).Redirect)

	h.signIn(t, "u1", domain.RoleCustomer)
	resp = h.do(t, http.MethodGet, "/api/v1/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, session.NotAuthorizedPath, decodeBody[ErrorResponse](t, resp).Redirect)

	resp = h.do(t, http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	h.signIn(t, "a1", domain.RoleAdmin)
	resp = h.do(t, http.MethodGet, "/api/v1/admin/users", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_SetsCookiesAndMergesGuestCart(t *testing.T) {
	token := testToken(t, "u1", domain.RoleCustomer, time.Now().Add(time.Hour))
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/signin" {
			notFound(w, r)
			return
		}
		envelope(w, http.StatusOK, `{"success":true,"data":{"accessToken":"`+token+`","refreshToken":"rt","role":"customer","id":"u1"}}`)
	})

	resp := h.do(t, http.MethodPost, "/api/v1/cart/items", mugRequest(1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, LoginResponse{ID: "u1", Role: domain.RoleCustomer}, decodeBody[LoginResponse](t, resp))

	var access *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == cookieAccess {
			access = c
		}
	}
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.Equal(t, token, access.Value)

	resp = h.do(t, http.MethodGet, "/api/v1/cart", nil)
	sum := decodeBody[service.CartSummary](t, resp)
	require.Len(t, sum.Items, 1, "guest cart follows the user after login")
	assert.Equal(t, "p1", sum.Items[0].ProductID)
}

func TestLogin_InvalidInputNeverReachesBackend(t *testing.T) {
	h := newHarness(t, notFound)

	resp := h.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, h.upstream.Load())
}

func TestCheckout_CODClearsCart(t *testing.T) {
	var key string
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/v1/orders/cod" {
			key = r.Header.Get("Idempotency-Key")
			envelope(w, http.StatusCreated, `{"success":true,"data":{"_id":"o1"}}`)
			return
		}
		notFound(w, r)
	})
	h.signIn(t, "u1", domain.RoleCustomer)

	resp := h.do(t, http.MethodPost, "/api/v1/cart/items", mugRequest(2))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{
		"address":        validAddress(),
		"payment_method": "cod",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decodeBody[service.CheckoutResult](t, resp)
	assert.Equal(t, "o1", res.OrderID)
	assert.Equal(t, "/checkout/confirmation?orderId=o1&method=cod", res.ConfirmationPath)
	assert.Empty(t, res.RedirectURL)
	assert.NotEmpty(t, key)

	resp = h.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Empty(t, decodeBody[service.CartSummary](t, resp).Items)
}

func TestCheckout_FailureKeepsCart(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusBadRequest, `{"success":false,"message":"Product p1 is no longer available"}`)
	})
	h.signIn(t, "u1", domain.RoleCustomer)

	resp := h.do(t, http.MethodPost, "/api/v1/cart/items", mugRequest(1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{
		"address":        validAddress(),
		"payment_method": "sslcommerz",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Product p1 is no longer available", decodeBody[ErrorResponse](t, resp).Error)

	resp = h.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Len(t, decodeBody[service.CartSummary](t, resp).Items, 1)
}

func TestCheckout_InvalidAddressMakesNoNetworkCall(t *testing.T) {
	h := newHarness(t, notFound)
	h.signIn(t, "u1", domain.RoleCustomer)

	addr := validAddress()
	delete(addr, "city")
	resp := h.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{
		"address":        addr,
		"payment_method": "cod",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "city", body.Fields[0].Field)

	resp = h.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"payment_method": "cod"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "address_required", decodeBody[ErrorResponse](t, resp).Code)

	assert.Zero(t, h.upstream.Load())
}

func TestSessionExpiry_ClearsCookies(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusUnauthorized, `{"success":false,"message":"jwt expired"}`)
	})
	h.signIn(t, "u1", domain.RoleCustomer)

	resp := h.do(t, http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "session_expired", body.Code)
	assert.Equal(t, session.LoginPath, body.Redirect)

	cleared := map[string]bool{}
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 {
			cleared[c.Name] = true
		}
	}
	for _, name := range []string{cookieAccess, cookieRefresh, cookieUserID, cookieRole, cookieOwner} {
		assert.True(t, cleared[name], "%s should be cleared", name)
	}
}

func TestAdmin_UpdateOrderStatusRejectsIllegalTransition(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/v1/orders/o1" {
			envelope(w, http.StatusOK, `{"success":true,"data":{"_id":"o1","status":"delivered"}}`)
			return
		}
		t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
		notFound(w, r)
	})
	h.signIn(t, "a1", domain.RoleAdmin)

	resp := h.do(t, http.MethodPatch, "/api/v1/admin/orders/o1/status", map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = h.do(t, http.MethodPatch, "/api/v1/admin/orders/o1/status", map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEvents_StreamsOwnerEvents(t *testing.T) {
	h := newHarness(t, notFound)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: cookieGuest, Value: "guest-1"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	line, err := rd.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)
	require.Equal(t, 1, h.hub.Subscribers(guestPrefix+"guest-1"))

	require.NoError(t, h.hub.Notify(ctx, events.Event{Type: events.CartUpdated, OwnerID: "someone-else", Count: 9}))
	require.NoError(t, h.hub.Notify(ctx, events.Event{Type: events.CartUpdated, OwnerID: guestPrefix + "guest-1", Count: 3}))

	var got []string
	for len(got) < 2 {
		line, err := rd.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			got = append(got, line)
		}
	}
	assert.Equal(t, "event: cartUpdated", got[0])
	require.True(t, strings.HasPrefix(got[1], "data: "))

	var e events.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(got[1], "data: ")), &e))
	assert.Equal(t, guestPrefix+"guest-1", e.OwnerID)
	assert.Equal(t, 3, e.Count)
}
