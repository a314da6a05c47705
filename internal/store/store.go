// Package store provides the persistent key-value stores that hold the
// API credential between sessions.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/diogo/minigpt/internal/config"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a string key-value store.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Open returns the store backend selected by name (see config.Store*).
func Open(backend string) (Store, error) {
	switch backend {
	case config.StoreFile, "":
		path, err := config.GetStoragePath()
		if err != nil {
			return nil, err
		}
		return NewFileStore(path), nil
	case config.StoreKeyring:
		return NewKeyringStore(KeyringService), nil
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", backend)
	}
}

// MemoryStore keeps values in process memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
