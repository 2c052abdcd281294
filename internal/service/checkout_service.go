package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/events"
	"github.com/fjod/shopease/internal/pricing"
	"github.com/fjod/shopease/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const confirmationPath = "/checkout/confirmation"

type SubmitRequest struct {
	Address       *domain.ShippingAddress `json:"address"`
	PaymentMethod string                  `json:"payment_method"`
}

// CheckoutResult tells the caller where to go next. Cash on delivery
// orders carry ConfirmationPath; hosted payment carries RedirectURL, which
// must be followed as a full navigation.
type CheckoutResult struct {
	Method           domain.PaymentMethod `json:"method"`
	OrderID          string               `json:"order_id,omitempty"`
	RedirectURL      string               `json:"redirect_url,omitempty"`
	ConfirmationPath string               `json:"confirmation_path,omitempty"`
	Totals           pricing.Totals       `json:"totals"`
}

type CheckoutService struct {
	cart     *CartService
	backend  OrderBackend
	auth     Authenticator
	calc     *pricing.Calculator
	notifier events.Notifier
	logger   *zap.Logger
	newKey   func() string
}

func NewCheckoutService(cart *CartService, b OrderBackend, auth Authenticator, calc *pricing.Calculator, n events.Notifier, log *zap.Logger) *CheckoutService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutService{
		cart:     cart,
		backend:  b,
		auth:     auth,
		calc:     calc,
		notifier: n,
		logger:   log,
		newKey:   uuid.NewString,
	}
}

// Submit places the owner's cart as an order. Everything that can be
// checked locally is checked before the single backend call, and the cart
// is cleared only after that call succeeded.
func (s *CheckoutService) Submit(ctx context.Context, store session.Store, ownerID string, req SubmitRequest) (CheckoutResult, error) {
	if req.Address == nil {
		return CheckoutResult{}, ErrAddressRequired
	}
	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, req.PaymentMethod)
	}
	if err := validateStruct(*req.Address); err != nil {
		return CheckoutResult{}, err
	}
	uid, err := userID(store)
	if err != nil {
		return CheckoutResult{}, err
	}

	items, err := s.cart.List(ctx, ownerID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(items) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}

	totals := s.calc.Calculate(items)
	draft := buildDraft(uid, items, *req.Address, method, totals)
	key := s.newKey()

	log := s.logger.With(
		zap.String("owner_id", ownerID),
		zap.String("payment_method", string(method)),
		zap.String("idempotency_key", key))

	var created backend.CreateOrderResult
	err = s.auth.Do(ctx, store, func(token string) error {
		var err error
		created, err = s.backend.CreateOrder(ctx, token, key, draft)
		return err
	})
	if err != nil {
		log.Info("order submission failed, cart kept", zap.Error(err))
		return CheckoutResult{}, err
	}

	res := CheckoutResult{Method: method, OrderID: created.ID, Totals: totals}
	if method.Hosted() {
		if created.PaymentURL == "" {
			log.Warn("hosted payment response without payment url, cart kept")
			return CheckoutResult{}, ErrMissingPaymentURL
		}
		res.RedirectURL = created.PaymentURL
	} else {
		res.ConfirmationPath = confirmationURL(created.ID, method)
	}

	if err := s.cart.Clear(ctx, ownerID); err != nil {
		// the order exists upstream; a stale cart is the lesser problem
		log.Error("order placed but cart not cleared", zap.String("order_id", created.ID), zap.Error(err))
	}
	notify(ctx, s.notifier, s.logger, events.Event{Type: events.OrderPlaced, OwnerID: ownerID, OrderID: created.ID})

	log.Info("order placed", zap.String("order_id", created.ID))
	return res, nil
}

// Preview prices the cart without submitting it.
func (s *CheckoutService) Preview(ctx context.Context, ownerID string) (CartSummary, error) {
	return s.cart.Summary(ctx, ownerID)
}

func buildDraft(uid string, items []domain.CartLineItem, addr domain.ShippingAddress, method domain.PaymentMethod, t pricing.Totals) domain.OrderDraft {
	lines := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		color := it.Variant
		if color == domain.DefaultVariant {
			color = ""
		}
		lines = append(lines, domain.OrderItem{
			Product:  it.ProductID,
			Quantity: it.Quantity,
			Price:    it.UnitPrice,
			Color:    color,
		})
	}
	addr.ID = ""

	return domain.OrderDraft{
		User:            uid,
		Items:           lines,
		ShippingAddress: addr,
		PaymentMethod:   method,
		PaymentStatus:   domain.PaymentStatusPending,
		Subtotal:        t.Subtotal,
		ShippingFee:     t.Shipping,
		Tax:             t.Tax,
		Total:           t.Total,
		Status:          domain.OrderStatusPending,
	}
}

func confirmationURL(orderID string, method domain.PaymentMethod) string {
	if orderID == "" {
		return confirmationPath + "?method=" + url.QueryEscape(string(method))
	}
	return fmt.Sprintf("%s?orderId=%s&method=%s", confirmationPath, url.QueryEscape(orderID), url.QueryEscape(string(method)))
}
