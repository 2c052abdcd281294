package service

import (
	"context"
	"time"

	"github.com/fjod/shopease/internal/cache"
	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/events"
	"github.com/fjod/shopease/internal/pricing"
	"github.com/fjod/shopease/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductLookup resolves a product so cart lines carry the catalog's price and stock.
type ProductLookup interface {
	GetProductBySlug(ctx context.Context, slug string) (domain.Product, error)
}

type AddItemRequest struct {
	ProductID   string          `json:"product_id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"image_url"`
	Variant     string          `json:"variant"`
	Stock       int             `json:"stock"`
	MaxQuantity int             `json:"max_quantity"`
}

type CartSummary struct {
	Items  []domain.CartLineItem `json:"items"`
	Totals pricing.Totals        `json:"totals"`
}

type CartService struct {
	store    *itemStore[domain.CartLineItem]
	catalog  ProductLookup
	calc     *pricing.Calculator
	notifier events.Notifier
	logger   *zap.Logger
}

func NewCartService(repo repository.CollectionRepository, c cache.CollectionCache, calc *pricing.Calculator, n events.Notifier, log *zap.Logger) *CartService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartService{
		store:    newItemStore[domain.CartLineItem](repo, repository.CartCollection, c, log),
		calc:     calc,
		notifier: n,
		logger:   log,
	}
}

// WithCatalog makes Add resolve products by slug. Once set, a request
// without a slug is rejected and its price and stock are never used.
func (s *CartService) WithCatalog(l ProductLookup) *CartService {
	s.catalog = l
	return s
}

func (s *CartService) List(ctx context.Context, ownerID string) ([]domain.CartLineItem, error) {
	return s.store.load(ctx, ownerID)
}

func (s *CartService) Summary(ctx context.Context, ownerID string) (CartSummary, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return CartSummary{}, err
	}
	return s.Price(items), nil
}

// Price wraps items with their totals.
func (s *CartService) Price(items []domain.CartLineItem) CartSummary {
	if items == nil {
		items = []domain.CartLineItem{}
	}
	return CartSummary{Items: items, Totals: s.calc.Calculate(items)}
}

// Add puts a product into the cart, merging with an existing line of the
// same product and variant.
func (s *CartService) Add(ctx context.Context, ownerID string, req AddItemRequest) ([]domain.CartLineItem, error) {
	if s.catalog != nil {
		if req.Slug == "" {
			return nil, &ValidationError{Fields: []FieldError{{Field: "slug", Message: "slug is required"}}}
		}
		p, err := s.catalog.GetProductBySlug(ctx, req.Slug)
		if err != nil {
			return nil, err
		}
		req.ProductID = p.ID
		req.Name = p.Name
		req.UnitPrice = p.Price
		req.ImageURL = p.PrimaryImage()
		req.Stock = p.Stock
	}
	if err := validateAddItem(req); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	key := domain.NewLineKey(req.ProductID, req.Variant)
	items, err := s.store.mutate(ctx, ownerID, func(items []domain.CartLineItem) ([]domain.CartLineItem, error) {
		for i := range items {
			if items[i].Key() != key {
				continue
			}
			if items[i].Quantity >= items[i].Limit() {
				return nil, ErrQuantityLimit
			}
			items[i].Quantity = items[i].Clamp(items[i].Quantity + req.Quantity)
			return items, nil
		}

		if req.Stock <= 0 {
			return nil, ErrOutOfStock
		}
		line := domain.CartLineItem{
			ProductID:   req.ProductID,
			Name:        req.Name,
			UnitPrice:   req.UnitPrice,
			ImageURL:    req.ImageURL,
			Variant:     key.Variant,
			Slug:        req.Slug,
			MaxQuantity: lineLimit(req.MaxQuantity, req.Stock),
			AddedAt:     time.Now().UTC(),
		}
		line.Quantity = line.Clamp(req.Quantity)
		return append(items, line), nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, ownerID, items)
	return items, nil
}

// UpdateQuantity sets a line's quantity. Anything below 1 removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, ownerID string, key domain.LineKey, quantity int) ([]domain.CartLineItem, error) {
	if quantity < 1 {
		return s.Remove(ctx, ownerID, key)
	}

	items, err := s.store.mutate(ctx, ownerID, func(items []domain.CartLineItem) ([]domain.CartLineItem, error) {
		for i := range items {
			if items[i].Key() == key {
				items[i].Quantity = items[i].Clamp(quantity)
				return items, nil
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

func (s *CartService) Remove(ctx context.Context, ownerID string, key domain.LineKey) ([]domain.CartLineItem, error) {
	items, err := s.store.mutate(ctx, ownerID, func(items []domain.CartLineItem) ([]domain.CartLineItem, error) {
		for i := range items {
			if items[i].Key() == key {
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

// Clear is idempotent; clearing an empty cart succeeds.
func (s *CartService) Clear(ctx context.Context, ownerID string) error {
	if err := s.store.clear(ctx, ownerID); err != nil {
		return err
	}
	s.changed(ctx, ownerID, nil)
	return nil
}

// Merge folds the guest cart of fromOwner into toOwner and clears it. Used at sign in.
func (s *CartService) Merge(ctx context.Context, fromOwner, toOwner string) error {
	if fromOwner == "" || fromOwner == toOwner {
		return nil
	}
	guest, err := s.List(ctx, fromOwner)
	if err != nil || len(guest) == 0 {
		return err
	}

	items, err := s.store.mutate(ctx, toOwner, func(items []domain.CartLineItem) ([]domain.CartLineItem, error) {
		for _, g := range guest {
			merged := false
			for i := range items {
				if items[i].Key() == g.Key() {
					items[i].Quantity = items[i].Clamp(items[i].Quantity + g.Quantity)
					merged = true
					break
				}
			}
			if !merged {
				items = append(items, g)
			}
		}
		return items, nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, toOwner, items)

	if err := s.store.clear(ctx, fromOwner); err != nil {
		s.logger.Warn("failed to clear merged guest cart", zap.String("owner_id", fromOwner), zap.Error(err))
	}
	return nil
}

func (s *CartService) changed(ctx context.Context, ownerID string, items []domain.CartLineItem) {
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	notify(ctx, s.notifier, s.logger, events.Event{Type: events.CartUpdated, OwnerID: ownerID, Count: count})
}

func validateAddItem(req AddItemRequest) error {
	var fields []FieldError
	if req.ProductID == "" {
		fields = append(fields, FieldError{Field: "product_id", Message: "product_id is required"})
	}
	if req.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "name is required"})
	}
	if req.UnitPrice.IsNegative() {
		fields = append(fields, FieldError{Field: "unit_price", Message: "unit_price must not be negative"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// lineLimit caps the per-line quantity by known stock.
func lineLimit(requested, stock int) int {
	limit := requested
	if limit <= 0 {
		limit = domain.DefaultMaxQuantity
	}
	if stock > 0 && stock < limit {
		limit = stock
	}
	return limit
}
