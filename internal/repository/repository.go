package repository

import (
	"context"
	"errors"
)

// Named collections persisted per owner. An owner is a signed-in user id or a
// guest session id.
const (
	CartCollection     = "cartItems"
	WishlistCollection = "wishlistItems"
)

var ErrCollectionNotFound = errors.New("collection not found")

// CollectionRepository stores one serialized document per (collection, owner).
// Writes replace the whole document; the last writer wins.
type CollectionRepository interface {
	Get(ctx context.Context, name, ownerID string) ([]byte, error)
	Set(ctx context.Context, name, ownerID string, payload []byte) error
	// Clear is idempotent: clearing a missing document is not an error.
	Clear(ctx context.Context, name, ownerID string) error
}
