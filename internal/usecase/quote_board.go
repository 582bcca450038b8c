package usecase

import (
	"context"
	"sync"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
)

func tsToTime(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// QuoteBoard keeps the latest quote per symbol for watchlist display.
// Every tick overwrites the in-memory quote and is written through to the
// cache shim best effort; a cache failure never stops the stream.
type QuoteBoard struct {
	mu      sync.RWMutex
	quotes  map[string]models.Quote
	store   drepo.QuoteStore
	rest    drepo.QuoteProvider
	metrics drepo.Metrics
}

func NewQuoteBoard(store drepo.QuoteStore, rest drepo.QuoteProvider, metrics drepo.Metrics) *QuoteBoard {
	return &QuoteBoard{
		quotes:  make(map[string]models.Quote),
		store:   store,
		rest:    rest,
		metrics: metrics,
	}
}

// Apply folds a tick into the board.
func (qb *QuoteBoard) Apply(ctx context.Context, t *models.Tick) {
	qb.mu.Lock()
	q, ok := qb.quotes[t.Symbol]
	if !ok {
		q = models.Quote{Symbol: t.Symbol}
	}
	q = q.WithLast(t.Price, tsToTime(t.Timestamp))
	q.Volume += t.Size
	q.Source = "stream"
	qb.quotes[t.Symbol] = q
	qb.mu.Unlock()

	qb.metrics.RecordLastPrice(t.Symbol, t.Price)
	if err := qb.store.Put(ctx, &q); err != nil {
		qb.metrics.RecordError("quote_cache_put")
	}
}

// Seed warms previous-close prices over REST so change fields mean something
// before the first tick of the session arrives.
func (qb *QuoteBoard) Seed(ctx context.Context, symbols []string) {
	for _, sym := range symbols {
		q, err := qb.rest.FetchQuote(ctx, sym)
		if err != nil {
			qb.metrics.RecordError("quote_seed")
			continue
		}
		qb.mu.Lock()
		cur, ok := qb.quotes[sym]
		if ok {
			// stream already produced a price, keep it and only adopt prev close
			cur.PrevClose = q.PrevClose
			cur = cur.WithLast(cur.Last, cur.UpdatedAt)
			qb.quotes[sym] = cur
		} else {
			qb.quotes[sym] = *q
		}
		qb.mu.Unlock()
		_ = qb.store.Put(ctx, q)
	}
}

// Get returns the latest quote: memory first, then the cache shim, then a
// cold REST fetch through the provider-fallback chain.
func (qb *QuoteBoard) Get(ctx context.Context, symbol string) (*models.Quote, error) {
	qb.mu.RLock()
	q, ok := qb.quotes[symbol]
	qb.mu.RUnlock()
	if ok {
		return &q, nil
	}

	if cached, err := qb.store.Get(ctx, symbol); err == nil && cached != nil {
		qb.remember(*cached)
		return cached, nil
	}

	fetched, err := qb.rest.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	qb.remember(*fetched)
	if err := qb.store.Put(ctx, fetched); err != nil {
		qb.metrics.RecordError("quote_cache_put")
	}
	return fetched, nil
}

// GetMany resolves a set of symbols in one pass; symbols that cannot be
// resolved are simply absent from the result.
func (qb *QuoteBoard) GetMany(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	out := make(map[string]models.Quote, len(symbols))
	missing := make([]string, 0)

	qb.mu.RLock()
	for _, sym := range symbols {
		if q, ok := qb.quotes[sym]; ok {
			out[sym] = q
		} else {
			missing = append(missing, sym)
		}
	}
	qb.mu.RUnlock()

	if len(missing) > 0 {
		cached, err := qb.store.GetMany(ctx, missing)
		if err == nil {
			for sym, q := range cached {
				out[sym] = q
				qb.remember(q)
			}
		}
	}

	for _, sym := range missing {
		if _, ok := out[sym]; ok {
			continue
		}
		q, err := qb.rest.FetchQuote(ctx, sym)
		if err != nil {
			qb.metrics.RecordError("quote_fetch")
			continue
		}
		out[sym] = *q
		qb.remember(*q)
		_ = qb.store.Put(ctx, q)
	}

	return out, nil
}

func (qb *QuoteBoard) remember(q models.Quote) {
	qb.mu.Lock()
	if _, ok := qb.quotes[q.Symbol]; !ok {
		qb.quotes[q.Symbol] = q
	}
	qb.mu.Unlock()
}
