package prefs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
)

// Favorites is the persisted favorite-id collection, kept in the order the
// ids were first marked. It is stored as a JSON array under KeyFavorites.
type Favorites struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger
}

// NewFavorites binds a favorite set to store.
func NewFavorites(store Store, logger *slog.Logger) *Favorites {
	if logger == nil {
		logger = slog.Default()
	}
	return &Favorites{store: store, logger: logger}
}

// IDs returns the favorite ids. A missing or unreadable value yields an empty list.
func (f *Favorites) IDs() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

// Set returns the favorites as a set for the query engine.
func (f *Favorites) Set() (catalog.IDSet, error) {
	ids, err := f.IDs()
	if err != nil {
		return nil, err
	}
	return catalog.NewIDSet(ids...), nil
}

// Contains reports whether id is a favorite.
func (f *Favorites) Contains(id string) (bool, error) {
	ids, err := f.IDs()
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// Toggle adds id when absent and removes it when present, then persists the
// new list. It returns the new list and whether id is now a favorite.
func (f *Favorites) Toggle(id string) ([]string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids, err := f.load()
	if err != nil {
		return nil, false, err
	}

	var added bool
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, id)
		added = true
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return nil, false, fmt.Errorf("encode favorites: %w", err)
	}
	if err := f.store.Set(KeyFavorites, string(data)); err != nil {
		return nil, false, fmt.Errorf("save favorites: %w", err)
	}
	return ids, added, nil
}

func (f *Favorites) load() ([]string, error) {
	raw, ok, err := f.store.Get(KeyFavorites)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	if !ok || raw == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		f.logger.Warn("Ignoring unreadable favorites", "error", err)
		return []string{}, nil
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
