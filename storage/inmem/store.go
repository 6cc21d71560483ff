// Package inmem provides a map-backed session.Store for tests and local
// development. Values survive for the process lifetime only.
package inmem

import (
	"context"
	"sync"

	"github.com/darasahq/shule/core/session"
)

type Store struct {
	mu   sync.RWMutex
	vals map[string][]byte
}

var _ session.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{vals: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.vals[key]
	if !ok {
		return nil, session.ErrKeyNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	val := make([]byte, len(value))
	copy(val, value)
	s.vals[key] = val
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vals, key)
	return nil
}

// Len reports the number of stored keys. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vals)
}
