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

const indicatorIndexKey = "indicator:index"

// CacheIndicatorStore persists indicator display configs as JSON values
// with an ID index for listing.
type CacheIndicatorStore struct {
	cache cache.Service
}

func NewCacheIndicatorStore(c cache.Service) domrepo.IndicatorStore {
	return &CacheIndicatorStore{cache: c}
}

func indicatorKey(id string) string { return "indicator:item:" + id }

func (s *CacheIndicatorStore) Put(ctx context.Context, cfg *models.IndicatorConfig) error {
	if cfg == nil || cfg.ID == "" {
		return fmt.Errorf("indicator config requires an id")
	}
	if err := s.cache.Set(ctx, indicatorKey(cfg.ID), cfg, 0); err != nil {
		return err
	}
	return indexAdd(ctx, s.cache, indicatorIndexKey, cfg.ID)
}

func (s *CacheIndicatorStore) Get(ctx context.Context, id string) (*models.IndicatorConfig, error) {
	var cfg models.IndicatorConfig
	if err := s.cache.Get(ctx, indicatorKey(id), &cfg); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *CacheIndicatorStore) List(ctx context.Context) ([]models.IndicatorConfig, error) {
	ids, err := indexMembers(ctx, s.cache, indicatorIndexKey)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.IndicatorConfig{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = indicatorKey(id)
	}
	byKey, err := cache.MGetTyped[models.IndicatorConfig](ctx, s.cache, keys...)
	if err != nil {
		return nil, err
	}
	out := make([]models.IndicatorConfig, 0, len(byKey))
	for _, cfg := range byKey {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CacheIndicatorStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, indicatorKey(id)); err != nil {
		return err
	}
	return indexRemove(ctx, s.cache, indicatorIndexKey, id)
}
