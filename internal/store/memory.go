package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process ContextStore. Bindings do not survive a
// restart; use the Postgres store for durable bindings.
type MemoryStore struct {
	mu       sync.RWMutex
	bindings map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bindings: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, contextKey string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindings[contextKey], nil
}

func (s *MemoryStore) Set(_ context.Context, contextKey, issueKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[contextKey] = issueKey
	return nil
}
