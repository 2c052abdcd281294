package service

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/shopease/internal/cache"
	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/events"
	"github.com/fjod/shopease/internal/repository"
	"go.uber.org/zap"
)

type WishlistService struct {
	store    *itemStore[domain.WishlistItem]
	cart     *CartService
	notifier events.Notifier
	logger   *zap.Logger
}

func NewWishlistService(repo repository.CollectionRepository, c cache.CollectionCache, cart *CartService, n events.Notifier, log *zap.Logger) *WishlistService {
	if log == nil {
		log = zap.NewNop()
	}
	return &WishlistService{
		store:    newItemStore[domain.WishlistItem](repo, repository.WishlistCollection, c, log),
		cart:     cart,
		notifier: n,
		logger:   log,
	}
}

func (s *WishlistService) List(ctx context.Context, ownerID string) ([]domain.WishlistItem, error) {
	return s.store.load(ctx, ownerID)
}

// Toggle adds item when absent and removes it when present. It reports
// whether the product is on the wishlist afterwards.
func (s *WishlistService) Toggle(ctx context.Context, ownerID string, item domain.WishlistItem) (bool, []domain.WishlistItem, error) {
	if !item.Valid() {
		return false, nil, &ValidationError{Fields: []FieldError{{Field: "product_id", Message: "product_id and name are required"}}}
	}

	present := false
	items, err := s.store.mutate(ctx, ownerID, func(items []domain.WishlistItem) ([]domain.WishlistItem, error) {
		for i := range items {
			if items[i].ProductID == item.ProductID {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		present = true
		item.AddedAt = time.Now().UTC()
		return append(items, item), nil
	})
	if err != nil {
		return false, nil, err
	}

	s.changed(ctx, ownerID, items)
	return present, items, nil
}

func (s *WishlistService) Remove(ctx context.Context, ownerID, productID string) ([]domain.WishlistItem, error) {
	items, err := s.store.mutate(ctx, ownerID, func(items []domain.WishlistItem) ([]domain.WishlistItem, error) {
		for i := range items {
			if items[i].ProductID == productID {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, ErrItemNotFound
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, ownerID, items)
	return items, nil
}

// MoveToCart adds one unit of the product to the cart, then drops it from
// the wishlist. A cart failure leaves the wishlist untouched.
func (s *WishlistService) MoveToCart(ctx context.Context, ownerID, productID string) ([]domain.CartLineItem, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var found *domain.WishlistItem
	for i := range items {
		if items[i].ProductID == productID {
			found = &items[i]
			break
		}
	}
	if found == nil {
		return nil, ErrItemNotFound
	}

	cart, err := s.cart.Add(ctx, ownerID, AddItemRequest{
		ProductID: found.ProductID,
		Name:      found.Name,
		UnitPrice: found.Price,
		Quantity:  1,
		ImageURL:  found.ImageURL,
		Slug:      found.Slug,
		Stock:     found.Stock,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.Remove(ctx, ownerID, productID); err != nil && !errors.Is(err, ErrItemNotFound) {
		return nil, err
	}
	return cart, nil
}

func (s *WishlistService) changed(ctx context.Context, ownerID string, items []domain.WishlistItem) {
	notify(ctx, s.notifier, s.logger, events.Event{Type: events.WishlistUpdated, OwnerID: ownerID, Count: len(items)})
}
