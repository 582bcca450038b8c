package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
)

type flakyCandleStore struct {
	memCandleStore
	failMu sync.Mutex
	fails  int // leading InsertBatch calls that fail
}

func (s *flakyCandleStore) InsertBatch(ctx context.Context, cs []*models.Candle) error {
	s.failMu.Lock()
	if s.fails > 0 {
		s.fails--
		s.failMu.Unlock()
		return fmt.Errorf("backend unavailable")
	}
	s.failMu.Unlock()
	return s.memCandleStore.InsertBatch(ctx, cs)
}

func newTestIngest(store drepo.CandleStore) (*TickIngest, *CandleBuilder, *fakeMetrics) {
	m := newFakeMetrics()
	proc := NewBarProcessor(nil, store, m, "clickhouse")
	builder := NewCandleBuilder([]drepo.Timeframe{drepo.TF1m}, proc, m)
	board := NewQuoteBoard(newMemQuoteStore(), &stubProvider{}, m)
	return NewTickIngest(builder, board, m), builder, m
}

func TestIngestRetryRoutesWithoutRefolding(t *testing.T) {
	store := &flakyCandleStore{fails: 1}
	ingest, builder, _ := newTestIngest(store)
	base := time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)

	if err := ingest.Process(context.Background(), tick("AAPL", 100, 3, base)); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	// this tick closes the 14:30 bar; routing fails once
	boundary := tick("AAPL", 101, 5, base.Add(time.Minute))
	if err := ingest.Process(context.Background(), boundary); err == nil {
		t.Fatalf("expected routing error surfaced")
	}

	// the retry must only re-attempt routing: no double-counted volume on
	// the open bar, and the closed bar persisted exactly once
	if err := ingest.Process(context.Background(), boundary); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if store.count() != 1 {
		t.Fatalf("expected closed bar persisted once, got %d", store.count())
	}
	closed := store.inserted[0]
	if closed.Volume != 3 || closed.Close != 100 {
		t.Fatalf("unexpected closed bar: %+v", closed)
	}

	open, ok := builder.OpenBar("AAPL", drepo.TF1m)
	if !ok {
		t.Fatalf("expected open bar")
	}
	if open.Volume != 5 {
		t.Fatalf("retry must not refold the tick: volume %v", open.Volume)
	}
}

func TestIngestRetrySucceedsAfterMultipleFailures(t *testing.T) {
	store := &flakyCandleStore{fails: 2}
	ingest, _, _ := newTestIngest(store)
	base := time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)

	if err := ingest.Process(context.Background(), tick("AAPL", 100, 1, base)); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	boundary := tick("AAPL", 101, 1, base.Add(time.Minute))
	for i := 0; i < 2; i++ {
		if err := ingest.Process(context.Background(), boundary); err == nil {
			t.Fatalf("attempt %d: expected error", i)
		}
	}
	if err := ingest.Process(context.Background(), boundary); err != nil {
		t.Fatalf("final retry: %v", err)
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 persisted bar, got %d", store.count())
	}
}
