package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptCollection marks a stored document that is not a JSON array of items.
var ErrCorruptCollection = errors.New("corrupt collection document")

// Collection gives typed access to one named collection of JSON arrays.
type Collection[T any] struct {
	repo CollectionRepository
	name string
}

func NewCollection[T any](repo CollectionRepository, name string) *Collection[T] {
	return &Collection[T]{repo: repo, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// Load returns the stored items, or an empty slice when the owner has none.
func (c *Collection[T]) Load(ctx context.Context, ownerID string) ([]T, error) {
	payload, err := c.repo.Get(ctx, c.name, ownerID)
	if errors.Is(err, ErrCollectionNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeItems[T](payload)
}

func (c *Collection[T]) Save(ctx context.Context, ownerID string, items []T) error {
	payload, err := EncodeItems(items)
	if err != nil {
		return err
	}
	return c.repo.Set(ctx, c.name, ownerID, payload)
}

func (c *Collection[T]) Clear(ctx context.Context, ownerID string) error {
	return c.repo.Clear(ctx, c.name, ownerID)
}

func DecodeItems[T any](payload []byte) ([]T, error) {
	items := []T{}
	if len(payload) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCollection, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func EncodeItems[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return b, nil
}
