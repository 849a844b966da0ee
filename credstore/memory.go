package credstore

import (
	"context"
	"sync"
)

var _ Storage = (*MemoryStorage)(nil)

type MemoryStorage struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Len is the number of stored keys
func (m *MemoryStorage) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.values)
}
