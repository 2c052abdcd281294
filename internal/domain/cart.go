package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultMaxQuantity applies when a line item carries no stock-derived limit.
	DefaultMaxQuantity = 10
	DefaultVariant     = "Default"
)

type CartLineItem struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"image_url,omitempty"`
	Variant     string          `json:"variant,omitempty"`
	Slug        string          `json:"slug,omitempty"`
	MaxQuantity int             `json:"max_quantity,omitempty"`
	AddedAt     time.Time       `json:"added_at"`
}

// LineKey identifies a cart line: the same product in two variants is two lines.
type LineKey struct {
	ProductID string
	Variant   string
}

func NewLineKey(productID, variant string) LineKey {
	if variant == "" {
		variant = DefaultVariant
	}
	return LineKey{ProductID: productID, Variant: variant}
}

func (i CartLineItem) Key() LineKey {
	return NewLineKey(i.ProductID, i.Variant)
}

func (i CartLineItem) Limit() int {
	if i.MaxQuantity > 0 {
		return i.MaxQuantity
	}
	return DefaultMaxQuantity
}

// Clamp bounds q to [1, Limit()].
func (i CartLineItem) Clamp(q int) int {
	if q < 1 {
		return 1
	}
	if limit := i.Limit(); q > limit {
		return limit
	}
	return q
}

// Valid reports whether a stored line can be priced. Lines read back from
// storage that fail this check are dropped.
func (i CartLineItem) Valid() bool {
	return i.ProductID != "" && i.Name != "" && !i.UnitPrice.IsNegative() && i.Quantity > 0
}

func (i CartLineItem) LineTotal() decimal.Decimal {
	q := i.Quantity
	if q < 0 {
		q = 0
	}
	price := i.UnitPrice
	if price.IsNegative() {
		price = decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(q)))
}

type WishlistItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url,omitempty"`
	Slug      string          `json:"slug,omitempty"`
	Stock     int             `json:"stock"`
	AddedAt   time.Time       `json:"added_at"`
}

func (w WishlistItem) Valid() bool {
	return w.ProductID != "" && w.Name != ""
}
