package dex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// FavoritesKey is the durable storage key holding the favorites set.
const FavoritesKey = "pokemon-favorites"

// FavoritesStore persists the favorited resources as a JSON array under
// FavoritesKey. Every mutation rewrites the whole array.
type FavoritesStore struct {
	storage Storage
	logger  Logger
	mu      sync.Mutex
}

// NewFavoritesStore wraps storage. A nil storage persists nothing and a nil
// logger discards warnings.
func NewFavoritesStore(storage Storage, logger Logger) *FavoritesStore {
	if storage == nil {
		storage = NewNoOpStorage()
	}

	if logger == nil {
		logger = NoopLogger{}
	}

	return &FavoritesStore{storage: storage, logger: logger}
}

// All returns the durable set in insertion order. A missing, unreadable or
// corrupt value yields an empty set.
func (f *FavoritesStore) All(ctx context.Context) []Resource {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.load(ctx)
}

func (f *FavoritesStore) load(ctx context.Context) []Resource {
	data, err := f.storage.Get(ctx, FavoritesKey)
	if errors.Is(err, ErrStorageKeyNotFound) {
		return []Resource{}
	}

	if err != nil {
		f.logger.Warn("Failed to read favorites", map[string]interface{}{"error": err.Error()})

		return []Resource{}
	}

	var favorites []Resource

	err = json.Unmarshal(data, &favorites)
	if err != nil {
		f.logger.Warn("Ignoring corrupt favorites", map[string]interface{}{"error": err.Error()})

		return []Resource{}
	}

	if favorites == nil {
		return []Resource{}
	}

	return favorites
}

func (f *FavoritesStore) save(ctx context.Context, favorites []Resource) error {
	data, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("encoding favorites: %w", err)
	}

	err = f.storage.Set(ctx, FavoritesKey, data)
	if err != nil {
		return fmt.Errorf("saving favorites: %w", err)
	}

	return nil
}

// Add appends resource and persists. It is a no-op when the id is present.
func (f *FavoritesStore) Add(ctx context.Context, resource Resource) ([]Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	favorites := f.load(ctx)
	if containsID(favorites, resource.ID) {
		return favorites, nil
	}

	favorites = append(favorites, resource)

	err := f.save(ctx, favorites)
	if err != nil {
		return nil, err
	}

	return favorites, nil
}

// Remove drops id and persists, whether or not it was present.
func (f *FavoritesStore) Remove(ctx context.Context, id int) ([]Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	favorites := slices.DeleteFunc(f.load(ctx), func(r Resource) bool {
		return r.ID == id
	})

	err := f.save(ctx, favorites)
	if err != nil {
		return nil, err
	}

	return favorites, nil
}

// Toggle adds resource when absent and removes it otherwise. It reports
// whether the resource is a favorite afterwards.
func (f *FavoritesStore) Toggle(ctx context.Context, resource Resource) ([]Resource, bool, error) {
	if f.IsFavorite(ctx, resource.ID) {
		favorites, err := f.Remove(ctx, resource.ID)

		return favorites, false, err
	}

	favorites, err := f.Add(ctx, resource)

	return favorites, err == nil, err
}

// IsFavorite reports membership by id.
func (f *FavoritesStore) IsFavorite(ctx context.Context, id int) bool {
	return containsID(f.All(ctx), id)
}

// Clear deletes the durable value.
func (f *FavoritesStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.storage.Delete(ctx, FavoritesKey)
	if err != nil {
		return fmt.Errorf("clearing favorites: %w", err)
	}

	return nil
}

func containsID(resources []Resource, id int) bool {
	return slices.ContainsFunc(resources, func(r Resource) bool {
		return r.ID == id
	})
}
