package service

import (
	"context"
	"testing"

	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/events"
	"github.com/fjod/shopease/internal/pricing"
	"github.com/fjod/shopease/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWishlist(t *testing.T) (*WishlistService, *CartService, *recordingNotifier) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	n := &recordingNotifier{}
	cart := NewCartService(repo, nil, pricing.NewCalculator(pricing.DefaultConfig()), n, zap.NewNop())
	return NewWishlistService(repo, nil, cart, n, zap.NewNop()), cart, n
}

var lamp = domain.WishlistItem{ProductID: "p9", Name: "Lamp", Price: decimal.NewFromInt(20), Stock: 3}

func TestWishlistService_Toggle(t *testing.T) {
	svc, _, n := newWishlist(t)
	ctx := context.Background()

	present, items, err := svc.Toggle(ctx, "alice", lamp)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Len(t, items, 1)

	present, items, err = svc.Toggle(ctx, "alice", lamp)
	require.NoError(t, err)
	assert.False(t, present)
	assert.Empty(t, items)

	assert.Equal(t, []events.Type{events.WishlistUpdated, events.WishlistUpdated}, n.types())

	_, _, err = svc.Toggle(ctx, "alice", domain.WishlistItem{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestWishlistService_MoveToCart(t *testing.T) {
	svc, cart, n := newWishlist(t)
	ctx := context.Background()

	_, _, err := svc.Toggle(ctx, "alice", lamp)
	require.NoError(t, err)

	items, err := svc.MoveToCart(ctx, "alice", "p9")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)

	wl, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, wl)

	// moving the same product again increments the cart line
	_, _, err = svc.Toggle(ctx, "alice", lamp)
	require.NoError(t, err)
	_, err = svc.MoveToCart(ctx, "alice", "p9")
	require.NoError(t, err)
	lines, err := cart.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, lines[0].Quantity)

	assert.Contains(t, n.types(), events.CartUpdated)
	assert.Contains(t, n.types(), events.WishlistUpdated)

	_, err = svc.MoveToCart(ctx, "alice", "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestWishlistService_MoveOutOfStockKeepsWishlist(t *testing.T) {
	svc, _, _ := newWishlist(t)
	ctx := context.Background()

	soldOut := lamp
	soldOut.Stock = 0
	_, _, err := svc.Toggle(ctx, "alice", soldOut)
	require.NoError(t, err)

	_, err = svc.MoveToCart(ctx, "alice", "p9")
	assert.ErrorIs(t, err, ErrOutOfStock)

	wl, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, wl, 1)
}

func TestWishlistService_Remove(t *testing.T) {
	svc, _, _ := newWishlist(t)
	ctx := context.Background()

	_, err := svc.Remove(ctx, "alice", "p9")
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, _, err = svc.Toggle(ctx, "alice", lamp)
	require.NoError(t, err)
	items, err := svc.Remove(ctx, "alice", "p9")
	require.NoError(t, err)
	assert.Empty(t, items)
}
