package memory

import (
	"context"
	"sync"

	"immistat/internal/storage"
)

// Store is a map-backed KeyValueStore. Nothing survives the process.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.KeyValueStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}
