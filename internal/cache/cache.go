package cache

import (
	"context"
	"errors"
)

type CollectionCache interface {
	Get(ctx context.Context, name, ownerID string) ([]byte, error)
	Set(ctx context.Context, name, ownerID string, payload []byte) error
	Delete(ctx context.Context, name, ownerID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache always misses. Used when no Redis address is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string, string) ([]byte, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, string, string, []byte) error   { return nil }
func (NopCache) Delete(context.Context, string, string) error        { return nil }
