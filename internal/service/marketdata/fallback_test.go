package marketdata

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"TradeDeck/internal/domain/models"
)

type scriptedProvider struct {
	mu    sync.Mutex
	name  string
	errs  []error // consumed per call; nil entry means success
	calls int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) next() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func (p *scriptedProvider) FetchQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	return &models.Quote{Symbol: symbol, Last: 100, Source: p.name}, nil
}

func (p *scriptedProvider) FetchDailyCandles(_ context.Context, symbol string, days int) ([]models.Candle, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	return make([]models.Candle, days), nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fallbackMetrics struct {
	mu        sync.Mutex
	fallbacks int
}

func (m *fallbackMetrics) RecordTick(string)               {}
func (m *fallbackMetrics) RecordBarClosed(string, string)  {}
func (m *fallbackMetrics) RecordError(string)              {}
func (m *fallbackMetrics) RecordLastPrice(string, float64) {}
func (m *fallbackMetrics) RecordLatency(string, float64)   {}
func (m *fallbackMetrics) RecordReconnect()                {}
func (m *fallbackMetrics) RecordFallback(string, string) {
	m.mu.Lock()
	m.fallbacks++
	m.mu.Unlock()
}

func (m *fallbackMetrics) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallbacks
}

func TestFallbackPrimarySuccess(t *testing.T) {
	primary := &scriptedProvider{name: "primary"}
	secondary := &scriptedProvider{name: "secondary"}
	m := &fallbackMetrics{}
	f := NewFallbackFetcher(primary, secondary, m)

	q, err := f.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Source != "primary" {
		t.Fatalf("expected primary to serve, got %s", q.Source)
	}
	if secondary.callCount() != 0 {
		t.Fatalf("secondary must not be called, got %d", secondary.callCount())
	}
	if m.count() != 0 {
		t.Fatalf("no fallback expected, got %d", m.count())
	}
}

func TestFallbackOnRateLimit(t *testing.T) {
	primary := &scriptedProvider{name: "primary", errs: []error{ErrRateLimited}}
	secondary := &scriptedProvider{name: "secondary"}
	m := &fallbackMetrics{}
	f := NewFallbackFetcher(primary, secondary, m)

	q, err := f.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Source != "secondary" {
		t.Fatalf("expected secondary to serve, got %s", q.Source)
	}
	// a 429 must not be retried against the primary
	if primary.callCount() != 1 {
		t.Fatalf("expected exactly 1 primary call, got %d", primary.callCount())
	}
	if m.count() != 1 {
		t.Fatalf("expected fallback recorded once, got %d", m.count())
	}
}

func TestFallbackRetriesTransientPrimaryError(t *testing.T) {
	primary := &scriptedProvider{name: "primary", errs: []error{fmt.Errorf("connection reset"), nil}}
	secondary := &scriptedProvider{name: "secondary"}
	m := &fallbackMetrics{}
	f := NewFallbackFetcher(primary, secondary, m, WithMaxRetries(2))

	q, err := f.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Source != "primary" {
		t.Fatalf("transient error should recover on primary, got %s", q.Source)
	}
	if primary.callCount() != 2 {
		t.Fatalf("expected 2 primary calls, got %d", primary.callCount())
	}
	if m.count() != 0 {
		t.Fatalf("no fallback expected, got %d", m.count())
	}
}

func TestFallbackBothProvidersFail(t *testing.T) {
	primary := &scriptedProvider{name: "primary", errs: []error{ErrRateLimited}}
	secondary := &scriptedProvider{name: "secondary", errs: []error{fmt.Errorf("boom")}}
	m := &fallbackMetrics{}
	f := NewFallbackFetcher(primary, secondary, m)

	if _, err := f.FetchQuote(context.Background(), "AAPL"); err == nil {
		t.Fatalf("expected error when both providers fail")
	}
}

func TestFallbackDailyCandles(t *testing.T) {
	primary := &scriptedProvider{name: "primary", errs: []error{ErrRateLimited}}
	secondary := &scriptedProvider{name: "secondary"}
	m := &fallbackMetrics{}
	f := NewFallbackFetcher(primary, secondary, m)

	candles, err := f.FetchDailyCandles(context.Background(), "AAPL", 30)
	if err != nil {
		t.Fatalf("fetch candles: %v", err)
	}
	if len(candles) != 30 {
		t.Fatalf("expected 30 candles, got %d", len(candles))
	}
	if m.count() != 1 {
		t.Fatalf("expected fallback recorded, got %d", m.count())
	}
}
