package backend

import (
	"context"
	"net/http"

	"github.com/fjod/shopease/internal/domain"
)

func (c *Client) ListOrders(ctx context.Context, token string, q ListQuery) ([]domain.Order, domain.PageMeta, error) {
	var out []domain.Order
	meta, err := c.do(ctx, call{method: http.MethodGet, path: "orders", query: q.Values(), token: token}, &out)
	return out, metaOrEmpty(meta), err
}

func (c *Client) GetOrder(ctx context.Context, token, id string) (domain.Order, error) {
	var out domain.Order
	_, err := c.do(ctx, call{method: http.MethodGet, path: "orders/" + id, token: token}, &out)
	return out, err
}

// CreateOrder posts the draft to the endpoint of its payment method.
// idempotencyKey lets the backend collapse a retried submission.
func (c *Client) CreateOrder(ctx context.Context, token, idempotencyKey string, draft domain.OrderDraft) (CreateOrderResult, error) {
	path := "orders/cod"
	if draft.PaymentMethod.Hosted() {
		path = "orders/ssl-commerz"
	}
	var out CreateOrderResult
	_, err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        path,
		token:       token,
		idempotency: idempotencyKey,
		body:        draft,
	}, &out)
	return out, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token, id string, status domain.OrderStatus) (domain.Order, error) {
	var out domain.Order
	_, err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   "orders/" + id + "/status",
		token:  token,
		body:   map[string]string{"status": status.String()},
	}, &out)
	return out, err
}

func (c *Client) CreateShippingAddress(ctx context.Context, token, userID string, addr domain.ShippingAddress) (domain.ShippingAddress, error) {
	var out savedAddress
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "shipping-addresses",
		token:  token,
		body:   toSavedAddress(userID, addr),
	}, &out)
	if err != nil {
		return domain.ShippingAddress{}, err
	}
	return out.toDomain(), nil
}
