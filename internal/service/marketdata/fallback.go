package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
	"TradeDeck/internal/service/ratelimit"

	"github.com/cenkalti/backoff/v4"
)

// FallbackFetcher chains two REST providers: the primary is tried with a
// short retry budget, and a rate-limit or exhausted retries moves the call
// to the secondary. Both providers share a local token-bucket limiter so we
// stop hammering a vendor before it tells us to.
type FallbackFetcher struct {
	primary    drepo.QuoteProvider
	secondary  drepo.QuoteProvider
	limiter    *ratelimit.Limiter
	metrics    drepo.Metrics
	maxRetries uint64
	ratePerSec float64
	burst      float64
}

type FallbackOption func(*FallbackFetcher)

// WithMaxRetries sets the retry budget against the primary.
func WithMaxRetries(n int) FallbackOption {
	return func(f *FallbackFetcher) {
		if n > 0 {
			f.maxRetries = uint64(n)
		}
	}
}

// WithLocalRate sets the client-side token bucket per provider.
func WithLocalRate(perSec, burst float64) FallbackOption {
	return func(f *FallbackFetcher) {
		if perSec > 0 {
			f.ratePerSec = perSec
		}
		if burst > 0 {
			f.burst = burst
		}
	}
}

func NewFallbackFetcher(primary, secondary drepo.QuoteProvider, metrics drepo.Metrics, opts ...FallbackOption) *FallbackFetcher {
	f := &FallbackFetcher{
		primary:    primary,
		secondary:  secondary,
		limiter:    ratelimit.New(),
		metrics:    metrics,
		maxRetries: 2,
		ratePerSec: 5,
		burst:      10,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FallbackFetcher) Name() string { return f.primary.Name() + "+" + f.secondary.Name() }

func (f *FallbackFetcher) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	q, err := fetchWithFallback(ctx, f, symbol, "quote",
		func(p drepo.QuoteProvider) (*models.Quote, error) { return p.FetchQuote(ctx, symbol) })
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (f *FallbackFetcher) FetchDailyCandles(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	return fetchWithFallback(ctx, f, symbol, "daily_candles",
		func(p drepo.QuoteProvider) ([]models.Candle, error) { return p.FetchDailyCandles(ctx, symbol, days) })
}

// fetchWithFallback runs the primary under retry, then the secondary once.
func fetchWithFallback[T any](ctx context.Context, f *FallbackFetcher, symbol, op string, call func(drepo.QuoteProvider) (T, error)) (T, error) {
	var zero T

	primaryErr := func() error {
		if !f.limiter.Allow(f.primary.Name(), f.burst, f.ratePerSec) {
			return ErrRateLimited
		}
		return nil
	}()

	var out T
	if primaryErr == nil {
		attempt := func() error {
			v, err := call(f.primary)
			if err != nil {
				if errors.Is(err, ErrRateLimited) {
					// do not retry the primary on 429
					return backoff.Permanent(err)
				}
				return err
			}
			out = v
			return nil
		}
		bo := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(100*time.Millisecond),
				backoff.WithMaxInterval(2*time.Second),
			), f.maxRetries),
			ctx)
		primaryErr = backoff.Retry(attempt, bo)
		if primaryErr == nil {
			return out, nil
		}
	}

	f.metrics.RecordFallback(f.primary.Name(), f.secondary.Name())
	if !f.limiter.Allow(f.secondary.Name(), f.burst, f.ratePerSec) {
		return zero, fmt.Errorf("%s %s: both providers exhausted: %w", op, symbol, ErrRateLimited)
	}
	v, err := call(f.secondary)
	if err != nil {
		return zero, fmt.Errorf("%s %s: primary: %v, fallback: %w", op, symbol, primaryErr, err)
	}
	return v, nil
}

var _ drepo.QuoteProvider = (*FallbackFetcher)(nil)
