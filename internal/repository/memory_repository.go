package repository

import (
	"context"
	"sync"
)

type memoryKey struct {
	name    string
	ownerID string
}

// MemoryRepository is a process-local store for development and tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[memoryKey][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[memoryKey][]byte)}
}

func (m *MemoryRepository) Get(_ context.Context, name, ownerID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[memoryKey{name, ownerID}]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return append([]byte(nil), doc...), nil
}

func (m *MemoryRepository) Set(_ context.Context, name, ownerID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[memoryKey{name, ownerID}] = append([]byte(nil), payload...)
	return nil
}

func (m *MemoryRepository) Clear(_ context.Context, name, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, memoryKey{name, ownerID})
	return nil
}
