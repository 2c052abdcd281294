package service

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/shopease/internal/cache"
	"github.com/fjod/shopease/internal/events"
	"github.com/fjod/shopease/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type validItem interface {
	Valid() bool
}

const lockStripes = 64

// itemStore is a read-through cached collection. Mutations of one owner
// are serialized inside this process; across processes the last writer wins.
//
// Each lock stripe carries a generation that every write bumps, so a
// background cache fill started before a write never lands after it.
type itemStore[T validItem] struct {
	coll   *repository.Collection[T]
	cache  cache.CollectionCache
	sfg    singleflight.Group
	locks  [lockStripes]sync.Mutex
	gens   [lockStripes]atomic.Uint64
	logger *zap.Logger
}

func newItemStore[T validItem](repo repository.CollectionRepository, name string, c cache.CollectionCache, log *zap.Logger) *itemStore[T] {
	if c == nil {
		c = cache.NopCache{}
	}
	return &itemStore[T]{
		coll:   repository.NewCollection[T](repo, name),
		cache:  c,
		logger: log,
	}
}

func (s *itemStore[T]) load(ctx context.Context, ownerID string) ([]T, error) {
	v, err, _ := s.sfg.Do(ownerID, func() (any, error) {
		payload, err := s.cache.Get(ctx, s.coll.Name(), ownerID)
		if err == nil {
			items, decErr := repository.DecodeItems[T](payload)
			if decErr == nil {
				return items, nil
			}
			s.logger.Warn("dropping undecodable cache entry", zap.String("collection", s.coll.Name()), zap.Error(decErr))
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get error", zap.String("collection", s.coll.Name()), zap.Error(err))
		}

		gen := s.gens[stripe(ownerID)].Load()
		items, err := s.loadStored(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		go s.fillCache(ownerID, items, gen)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return validOnly(v.([]T)), nil
}

// loadStored reads the repository. An unreadable document counts as empty.
func (s *itemStore[T]) loadStored(ctx context.Context, ownerID string) ([]T, error) {
	items, err := s.coll.Load(ctx, ownerID)
	if errors.Is(err, repository.ErrCorruptCollection) {
		s.logger.Warn("stored collection unreadable, starting empty",
			zap.String("collection", s.coll.Name()),
			zap.String("owner_id", ownerID),
			zap.Error(err))
		return []T{}, nil
	}
	return items, err
}

func (s *itemStore[T]) fillCache(ownerID string, items []T, gen uint64) {
	payload, err := repository.EncodeItems(items)
	if err != nil {
		return
	}

	i := stripe(ownerID)
	s.locks[i].Lock()
	defer s.locks[i].Unlock()
	if s.gens[i].Load() != gen {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, s.coll.Name(), ownerID, payload); err != nil {
		s.logger.Warn("cache set error", zap.String("collection", s.coll.Name()), zap.Error(err))
	}
}

// mutate loads, applies fn and saves under the owner's lock. fn returning
// an error aborts without saving.
func (s *itemStore[T]) mutate(ctx context.Context, ownerID string, fn func([]T) ([]T, error)) ([]T, error) {
	i := stripe(ownerID)
	s.locks[i].Lock()
	defer s.locks[i].Unlock()

	items, err := s.loadStored(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	items, err = fn(validOnly(items))
	if err != nil {
		return nil, err
	}
	if err := s.coll.Save(ctx, ownerID, items); err != nil {
		return nil, err
	}
	s.gens[i].Add(1)
	s.invalidate(ownerID)
	return items, nil
}

func (s *itemStore[T]) clear(ctx context.Context, ownerID string) error {
	i := stripe(ownerID)
	s.locks[i].Lock()
	defer s.locks[i].Unlock()

	if err := s.coll.Clear(ctx, ownerID); err != nil {
		return err
	}
	s.gens[i].Add(1)
	s.invalidate(ownerID)
	return nil
}

func (s *itemStore[T]) invalidate(ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, s.coll.Name(), ownerID); err != nil {
		s.logger.Warn("cache invalidate error", zap.String("collection", s.coll.Name()), zap.Error(err))
	}
}

// validOnly copies the valid items so callers never share a slice with
// another singleflight caller.
func validOnly[T validItem](in []T) []T {
	out := make([]T, 0, len(in))
	for _, it := range in {
		if it.Valid() {
			out = append(out, it)
		}
	}
	return out
}

func stripe(ownerID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ownerID))
	return int(h.Sum32() % lockStripes)
}

func notify(ctx context.Context, n events.Notifier, log *zap.Logger, e events.Event) {
	if n == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := n.Notify(ctx, e); err != nil {
		log.Warn("event notify failed", zap.String("type", string(e.Type)), zap.String("owner_id", e.OwnerID), zap.Error(err))
	}
}
