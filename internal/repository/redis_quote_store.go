package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeDeck/internal/domain/models"
	domrepo "TradeDeck/internal/domain/repository"
	"TradeDeck/pkg/cache"
)

const quoteTTL = 24 * time.Hour

// CacheQuoteStore keeps the latest quote per symbol in the cache layer.
// Quotes are transient display state, so a missing key is not an error.
type CacheQuoteStore struct {
	cache cache.Service
}

func NewCacheQuoteStore(c cache.Service) domrepo.QuoteStore {
	return &CacheQuoteStore{cache: c}
}

func quoteKey(symbol string) string { return "quote:" + symbol }

func (s *CacheQuoteStore) Put(ctx context.Context, q *models.Quote) error {
	if q == nil || q.Symbol == "" {
		return fmt.Errorf("quote requires a symbol")
	}
	return s.cache.Set(ctx, quoteKey(q.Symbol), q, quoteTTL)
}

func (s *CacheQuoteStore) Get(ctx context.Context, symbol string) (*models.Quote, error) {
	var q models.Quote
	if err := s.cache.Get(ctx, quoteKey(symbol), &q); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (s *CacheQuoteStore) GetMany(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	if len(symbols) == 0 {
		return map[string]models.Quote{}, nil
	}
	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = quoteKey(sym)
	}
	byKey, err := cache.MGetTyped[models.Quote](ctx, s.cache, keys...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Quote, len(byKey))
	for _, q := range byKey {
		out[q.Symbol] = q
	}
	return out, nil
}
