// Package prefs persists the user's local preferences: the favorite tool set
// and the dark-mode flag. Values live in a scoped key-value store.
package prefs

import (
	"errors"
	"sync"
)

// Keys used in the store.
const (
	KeyFavorites = "favorites"
	KeyTheme     = "theme"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("preference store is closed")

// Store is a string key-value store. A missing key reports ok=false.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// MemoryStore is an in-memory Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store.
func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Store.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
