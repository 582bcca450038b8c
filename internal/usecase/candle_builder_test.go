package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
)

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: make(map[string]int)}
}

func (m *fakeMetrics) RecordTick(string)                {}
func (m *fakeMetrics) RecordBarClosed(string, string)   {}
func (m *fakeMetrics) RecordLastPrice(string, float64)  {}
func (m *fakeMetrics) RecordLatency(string, float64)    {}
func (m *fakeMetrics) RecordReconnect()                 {}
func (m *fakeMetrics) RecordFallback(from, to string)   {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type memCandleStore struct {
	mu       sync.Mutex
	inserted []*models.Candle
}

func (s *memCandleStore) Init(context.Context) error { return nil }
func (s *memCandleStore) Insert(ctx context.Context, c *models.Candle) error {
	return s.InsertBatch(ctx, []*models.Candle{c})
}
func (s *memCandleStore) InsertBatch(_ context.Context, cs []*models.Candle) error {
	s.mu.Lock()
	s.inserted = append(s.inserted, cs...)
	s.mu.Unlock()
	return nil
}
func (s *memCandleStore) GetCandles(context.Context, string, time.Time, time.Time, drepo.Timeframe) ([]models.Candle, error) {
	return nil, nil
}
func (s *memCandleStore) GetLatestNCandles(context.Context, string, int, drepo.Timeframe) ([]models.Candle, error) {
	return nil, nil
}
func (s *memCandleStore) Health(context.Context) error { return nil }
func (s *memCandleStore) Close() error                 { return nil }

func (s *memCandleStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

func tick(sym string, price, size float64, at time.Time) *models.Tick {
	return &models.Tick{Symbol: sym, Price: price, Size: size, Timestamp: at.Unix()}
}

func newTestBuilder(tfs []drepo.Timeframe) (*CandleBuilder, *memCandleStore, *fakeMetrics) {
	store := &memCandleStore{}
	m := newFakeMetrics()
	proc := NewBarProcessor(nil, store, m, "clickhouse")
	return NewCandleBuilder(tfs, proc, m), store, m
}

func TestCandleBuilderExtendsOpenBar(t *testing.T) {
	b, store, _ := newTestBuilder([]drepo.Timeframe{drepo.TF1m})
	base := time.Date(2025, 3, 3, 14, 30, 5, 0, time.UTC)

	if err := b.Process(context.Background(), tick("AAPL", 100, 10, base)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := b.Process(context.Background(), tick("AAPL", 102, 5, base.Add(20*time.Second))); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := b.Process(context.Background(), tick("AAPL", 99, 7, base.Add(40*time.Second))); err != nil {
		t.Fatalf("process: %v", err)
	}

	if store.count() != 0 {
		t.Fatalf("expected no closed bars, got %d", store.count())
	}
	bar, ok := b.OpenBar("AAPL", drepo.TF1m)
	if !ok {
		t.Fatalf("expected open bar")
	}
	if bar.Open != 100 || bar.High != 102 || bar.Low != 99 || bar.Close != 99 {
		t.Fatalf("unexpected OHLC: %+v", bar)
	}
	if bar.Volume != 22 {
		t.Fatalf("unexpected volume %v", bar.Volume)
	}
	if !bar.Bucket.Equal(time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected bucket %v", bar.Bucket)
	}
}

func TestCandleBuilderClosesBarOnBoundary(t *testing.T) {
	b, store, _ := newTestBuilder([]drepo.Timeframe{drepo.TF1m})
	base := time.Date(2025, 3, 3, 14, 30, 59, 0, time.UTC)

	if err := b.Process(context.Background(), tick("AAPL", 100, 1, base)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := b.Process(context.Background(), tick("AAPL", 101, 2, base.Add(2*time.Second))); err != nil {
		t.Fatalf("process: %v", err)
	}

	if store.count() != 1 {
		t.Fatalf("expected 1 closed bar, got %d", store.count())
	}
	closed := store.inserted[0]
	if closed.Close != 100 || closed.Volume != 1 {
		t.Fatalf("unexpected closed bar: %+v", closed)
	}

	bar, ok := b.OpenBar("AAPL", drepo.TF1m)
	if !ok || bar.Open != 101 {
		t.Fatalf("expected new open bar seeded at 101, got %+v ok=%v", bar, ok)
	}
}

func TestCandleBuilderDropsLateTick(t *testing.T) {
	b, store, m := newTestBuilder([]drepo.Timeframe{drepo.TF1m})
	base := time.Date(2025, 3, 3, 14, 31, 0, 0, time.UTC)

	if err := b.Process(context.Background(), tick("AAPL", 100, 1, base)); err != nil {
		t.Fatalf("process: %v", err)
	}
	// tick from the previous minute must not reopen a closed bucket
	if err := b.Process(context.Background(), tick("AAPL", 95, 1, base.Add(-30*time.Second))); err != nil {
		t.Fatalf("process: %v", err)
	}

	if store.count() != 0 {
		t.Fatalf("late tick must not close bars, got %d", store.count())
	}
	if m.errorCount("late_tick_1m") != 1 {
		t.Fatalf("expected late tick recorded, got %d", m.errorCount("late_tick_1m"))
	}
	bar, _ := b.OpenBar("AAPL", drepo.TF1m)
	if bar.Low != 100 {
		t.Fatalf("late tick must not mutate the open bar: %+v", bar)
	}
}

func TestCandleBuilderTracksTimeframesIndependently(t *testing.T) {
	b, store, _ := newTestBuilder([]drepo.Timeframe{drepo.TF1m, drepo.TF1h})
	base := time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)

	if err := b.Process(context.Background(), tick("AAPL", 100, 1, base)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := b.Process(context.Background(), tick("AAPL", 101, 1, base.Add(time.Minute))); err != nil {
		t.Fatalf("process: %v", err)
	}

	// 1m closed, 1h still open
	if store.count() != 1 {
		t.Fatalf("expected only the 1m bar to close, got %d", store.count())
	}
	if store.inserted[0].Timeframe != "1m" {
		t.Fatalf("unexpected closed timeframe %s", store.inserted[0].Timeframe)
	}
	if _, ok := b.OpenBar("AAPL", drepo.TF1h); !ok {
		t.Fatalf("expected 1h bar still open")
	}
}

func TestCandleBuilderFlush(t *testing.T) {
	b, store, _ := newTestBuilder([]drepo.Timeframe{drepo.TF1m, drepo.TF5m})
	base := time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)

	if err := b.Process(context.Background(), tick("AAPL", 100, 1, base)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if store.count() != 2 {
		t.Fatalf("expected both open bars flushed, got %d", store.count())
	}
	if _, ok := b.OpenBar("AAPL", drepo.TF1m); ok {
		t.Fatalf("flush must clear open bars")
	}
}
