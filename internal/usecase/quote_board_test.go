package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"TradeDeck/internal/domain/models"
)

type memQuoteStore struct {
	mu     sync.Mutex
	quotes map[string]models.Quote
}

func newMemQuoteStore() *memQuoteStore {
	return &memQuoteStore{quotes: make(map[string]models.Quote)}
}

func (s *memQuoteStore) Put(_ context.Context, q *models.Quote) error {
	s.mu.Lock()
	s.quotes[q.Symbol] = *q
	s.mu.Unlock()
	return nil
}

func (s *memQuoteStore) Get(_ context.Context, symbol string) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.quotes[symbol]; ok {
		return &q, nil
	}
	return nil, nil
}

func (s *memQuoteStore) GetMany(_ context.Context, symbols []string) (map[string]models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Quote)
	for _, sym := range symbols {
		if q, ok := s.quotes[sym]; ok {
			out[sym] = q
		}
	}
	return out, nil
}

type stubProvider struct {
	mu     sync.Mutex
	calls  int
	quotes map[string]models.Quote
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) FetchQuote(_ context.Context, symbol string) (*models.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if q, ok := p.quotes[symbol]; ok {
		return &q, nil
	}
	return nil, fmt.Errorf("unknown symbol %s", symbol)
}

func (p *stubProvider) FetchDailyCandles(context.Context, string, int) ([]models.Candle, error) {
	return nil, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestQuoteBoardApplyComputesChange(t *testing.T) {
	store := newMemQuoteStore()
	provider := &stubProvider{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Last: 200, PrevClose: 200, Source: "rest"},
	}}
	qb := NewQuoteBoard(store, provider, newFakeMetrics())

	qb.Seed(context.Background(), []string{"AAPL"})
	qb.Apply(context.Background(), &models.Tick{Symbol: "AAPL", Price: 210, Size: 100, Timestamp: time.Now().Unix()})

	q, err := qb.Get(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.Last != 210 {
		t.Fatalf("unexpected last %v", q.Last)
	}
	if q.Change != 10 {
		t.Fatalf("unexpected change %v", q.Change)
	}
	if q.ChangePercent != 5 {
		t.Fatalf("unexpected change percent %v", q.ChangePercent)
	}
	if q.Source != "stream" {
		t.Fatalf("tick must mark source=stream, got %s", q.Source)
	}
}

func TestQuoteBoardGetColdFallsBackToREST(t *testing.T) {
	store := newMemQuoteStore()
	provider := &stubProvider{quotes: map[string]models.Quote{
		"MSFT": {Symbol: "MSFT", Last: 400, PrevClose: 390, Source: "rest"},
	}}
	qb := NewQuoteBoard(store, provider, newFakeMetrics())

	q, err := qb.Get(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.Last != 400 {
		t.Fatalf("unexpected last %v", q.Last)
	}
	if provider.callCount() != 1 {
		t.Fatalf("expected one REST call, got %d", provider.callCount())
	}

	// second lookup is served from memory
	if _, err := qb.Get(context.Background(), "MSFT"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if provider.callCount() != 1 {
		t.Fatalf("expected memory hit, got %d REST calls", provider.callCount())
	}
}

func TestQuoteBoardGetManySkipsUnresolvable(t *testing.T) {
	store := newMemQuoteStore()
	provider := &stubProvider{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Last: 200, PrevClose: 195},
	}}
	qb := NewQuoteBoard(store, provider, newFakeMetrics())

	out, err := qb.GetMany(context.Background(), []string{"AAPL", "NOPE"})
	if err != nil {
		t.Fatalf("getmany: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 resolved quote, got %d", len(out))
	}
	if _, ok := out["AAPL"]; !ok {
		t.Fatalf("expected AAPL resolved")
	}
}
