// Package storage provides the console's persistent key/value storage, the
// equivalent of a browser's localStorage. Values survive process restarts for the
// file and postgres backends.
package storage

import (
	"context"
	"fmt"
	"sync"

	"taskflow-console/internal/model"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Storage is a string key/value store. GetItem returns model.ErrItemNotFound for
// absent keys; RemoveItem of an absent key is not an error.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key string, value string) error
	RemoveItem(ctx context.Context, key string) error
}

type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *MemoryStorage {
	return &MemoryStorage{items: map[string]string{}}
}

func (s *MemoryStorage) GetItem(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return "", fmt.Errorf("get %q: %w", key, model.ErrItemNotFound)
	}

	return value, nil
}

func (s *MemoryStorage) SetItem(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return nil
}

func (s *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}
