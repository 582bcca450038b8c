package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"TradeDeck/internal/domain/models"
	domrepo "TradeDeck/internal/domain/repository"
	"TradeDeck/pkg/cache"
)

const watchlistIndexKey = "watchlist:index"

// CacheWatchlistStore persists watchlists as JSON values with a name
// index for listing. Entries never expire.
type CacheWatchlistStore struct {
	cache cache.Service
}

func NewCacheWatchlistStore(c cache.Service) domrepo.WatchlistStore {
	return &CacheWatchlistStore{cache: c}
}

func watchlistKey(name string) string { return "watchlist:item:" + name }

func (s *CacheWatchlistStore) Put(ctx context.Context, w *models.Watchlist) error {
	if w == nil || w.Name == "" {
		return fmt.Errorf("watchlist requires a name")
	}
	if err := s.cache.Set(ctx, watchlistKey(w.Name), w, 0); err != nil {
		return err
	}
	return indexAdd(ctx, s.cache, watchlistIndexKey, w.Name)
}

func (s *CacheWatchlistStore) Get(ctx context.Context, name string) (*models.Watchlist, error) {
	var w models.Watchlist
	if err := s.cache.Get(ctx, watchlistKey(name), &w); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (s *CacheWatchlistStore) List(ctx context.Context) ([]models.Watchlist, error) {
	names, err := indexMembers(ctx, s.cache, watchlistIndexKey)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []models.Watchlist{}, nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = watchlistKey(n)
	}
	byKey, err := cache.MGetTyped[models.Watchlist](ctx, s.cache, keys...)
	if err != nil {
		return nil, err
	}
	out := make([]models.Watchlist, 0, len(byKey))
	for _, w := range byKey {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CacheWatchlistStore) Delete(ctx context.Context, name string) error {
	if err := s.cache.Delete(ctx, watchlistKey(name)); err != nil {
		return err
	}
	return indexRemove(ctx, s.cache, watchlistIndexKey, name)
}
