package service

import (
	"context"
	"fmt"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/session"
	"go.uber.org/zap"
)

type OrderPage struct {
	Orders     []domain.Order  `json:"orders"`
	Meta       domain.PageMeta `json:"meta"`
	TotalPages int             `json:"total_pages"`
}

type OrderService struct {
	backend OrderBackend
	auth    Authenticator
	logger  *zap.Logger
}

func NewOrderService(b OrderBackend, auth Authenticator, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{backend: b, auth: auth, logger: log}
}

func (s *OrderService) List(ctx context.Context, store session.Store, q backend.ListQuery) (OrderPage, error) {
	var page OrderPage
	err := s.auth.Do(ctx, store, func(token string) error {
		orders, meta, err := s.backend.ListOrders(ctx, token, q)
		if err != nil {
			return err
		}
		page = OrderPage{Orders: orders, Meta: meta, TotalPages: meta.TotalPages()}
		return nil
	})
	if page.Orders == nil {
		page.Orders = []domain.Order{}
	}
	return page, err
}

func (s *OrderService) Get(ctx context.Context, store session.Store, id string) (domain.Order, error) {
	var order domain.Order
	err := s.auth.Do(ctx, store, func(token string) error {
		var err error
		order, err = s.backend.GetOrder(ctx, token, id)
		return err
	})
	return order, err
}

// MarkDelivered is the customer's confirmation that a shipped order arrived.
func (s *OrderService) MarkDelivered(ctx context.Context, store session.Store, id string) (domain.Order, error) {
	return s.UpdateStatus(ctx, store, id, domain.OrderStatusDelivered)
}

// UpdateStatus moves an order to next after checking the transition
// against the order's current status.
func (s *OrderService) UpdateStatus(ctx context.Context, store session.Store, id string, next domain.OrderStatus) (domain.Order, error) {
	var updated domain.Order
	err := s.auth.Do(ctx, store, func(token string) error {
		current, err := s.backend.GetOrder(ctx, token, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, current.Status, next)
		}
		updated, err = s.backend.UpdateOrderStatus(ctx, token, id, next)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("order status updated", zap.String("order_id", id), zap.String("status", next.String()))
	return updated, nil
}
