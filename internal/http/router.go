package http

import (
	"net/http"
	"time"

	"github.com/fjod/shopease/internal/service"
	"github.com/fjod/shopease/internal/session"
	"github.com/fjod/shopease/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Cart      *service.CartService
	Wishlist  *service.WishlistService
	Checkout  *service.CheckoutService
	Addresses *service.AddressService
	Orders    *service.OrderService
	Accounts  *service.AccountService
	Catalog   *service.CatalogService

	Events  Subscriber
	Guard   *session.Guard
	Owners  *session.OwnerSigner
	Metrics *metrics.ServerMetrics
	Logger  *zap.Logger

	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	CookieSecure       bool
}

// Guarded route groups are checked against the page they back.
const (
	accountPage  = "/account"
	checkoutPage = "/checkout"
	ordersPage   = "/profile/orders"
	adminPage    = "/admin"
)

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Guard == nil {
		d.Guard = session.NewGuard()
	}
	if d.Owners == nil {
		owners, err := session.NewOwnerSigner(nil, 0)
		if err != nil {
			panic(err)
		}
		d.Owners = owners
	}

	authHandler := NewAuthHandler(d.Accounts, d.RequestTimeout)
	cartHandler := NewCartHandler(d.Cart, d.RequestTimeout)
	wishlistHandler := NewWishlistHandler(d.Wishlist, d.Cart, d.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(d.Checkout, d.Addresses, d.RequestTimeout)
	ordersHandler := NewOrdersHandler(d.Orders, d.RequestTimeout)
	catalogHandler := NewCatalogHandler(d.Catalog, d.RequestTimeout)
	adminHandler := NewAdminHandler(d.Catalog, d.Accounts, d.RequestTimeout, d.MaxRequestBodySize)
	eventsHandler := NewEventsHandler(d.Events, d.Logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(AccessLog(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(SessionMiddleware(d.CookieSecure, d.Owners))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// streams outlive the request timeout
		r.Get("/events", eventsHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(d.RequestTimeout))
			r.Use(middleware.Compress(5))
			r.Use(BodyLimit(d.MaxRequestBodySize))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", authHandler.Login)
				r.Post("/register", authHandler.Register)
				r.Post("/logout", authHandler.Logout)
				r.Group(func(r chi.Router) {
					r.Use(RequirePage(d.Guard, accountPage))
					r.Get("/me", authHandler.Me)
					r.Patch("/me", authHandler.UpdateMe)
					r.Patch("/me/password", authHandler.ChangePassword)
				})
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Patch("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", wishlistHandler.GetWishlist)
				r.Post("/toggle", wishlistHandler.Toggle)
				r.Delete("/items/{product_id}", wishlistHandler.RemoveItem)
				r.Post("/items/{product_id}/move-to-cart", wishlistHandler.MoveToCart)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Use(RequirePage(d.Guard, checkoutPage))
				r.Get("/", checkoutHandler.GetCheckout)
				r.Post("/", checkoutHandler.Submit)
				r.Post("/addresses", checkoutHandler.SaveAddress)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Use(RequirePage(d.Guard, ordersPage))
				r.Get("/", ordersHandler.ListOrders)
				r.Get("/{order_id}", ordersHandler.GetOrder)
				r.Patch("/{order_id}/delivered", ordersHandler.MarkDelivered)
			})

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/active", catalogHandler.ListActiveProducts)
			r.Get("/products/{slug}", catalogHandler.GetProduct)
			r.Get("/categories", catalogHandler.ListCategories)
			r.Post("/contact", catalogHandler.Contact)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequirePage(d.Guard, adminPage))

				r.Post("/categories", adminHandler.CreateCategory)
				r.Patch("/categories/{category_id}", adminHandler.UpdateCategory)

				r.Post("/products", adminHandler.CreateProduct)
				r.Patch("/products/{product_id}", adminHandler.UpdateProduct)
				r.Delete("/products/{product_id}/images", adminHandler.DeleteProductImage)

				r.Get("/orders", ordersHandler.ListOrders)
				r.Get("/orders/{order_id}", ordersHandler.GetOrder)
				r.Patch("/orders/{order_id}/status", ordersHandler.UpdateStatus)

				r.Get("/users", adminHandler.ListUsers)
				r.Get("/users/{user_id}", adminHandler.GetUser)
				r.Patch("/users/{user_id}", adminHandler.UpdateUser)
			})
		})
	})

	return r
}
