// Package memory provides an in-process Slots implementation used in tests and the memory driver.
package memory

import (
	"context"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
)

// Store keeps slots in a map guarded by a mutex.
type Store struct {
	mu        sync.RWMutex
	namespace string
	data      map[string][]byte
}

// New builds an empty store whose keys are prefixed with namespace.
func New(namespace string) *Store {
	return &Store{namespace: namespace, data: make(map[string][]byte)}
}

func (s *Store) ReadSlot(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[storage.Key(s.namespace, name)]
	if !ok {
		return nil, storage.ErrSlotNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *Store) WriteSlot(ctx context.Context, name string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.mu.Lock()
	s.data[storage.Key(s.namespace, name)] = stored
	s.mu.Unlock()
	return nil
}

func (s *Store) DeleteSlot(ctx context.Context, names ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	for _, name := range names {
		delete(s.data, storage.Key(s.namespace, name))
	}
	s.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Has reports whether the named slot currently holds a value.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[storage.Key(s.namespace, name)]
	return ok
}
