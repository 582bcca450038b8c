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

type fakeStream struct {
	mu             sync.Mutex
	readCalls      int
	reconnectCalls int
	failReconnects int // leading Reconnect calls that fail
	ticks          chan *models.Tick
	errs           chan error
}

func (s *fakeStream) Connect(context.Context) error               { return nil }
func (s *fakeStream) Subscribe(context.Context, []string) error   { return nil }
func (s *fakeStream) Unsubscribe(context.Context, []string) error { return nil }
func (s *fakeStream) Close() error                                { return nil }
func (s *fakeStream) IsConnected() bool                           { return true }

func (s *fakeStream) Read(context.Context) (<-chan *models.Tick, <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCalls++
	s.ticks = make(chan *models.Tick, 8)
	s.errs = make(chan error, 1)
	return s.ticks, s.errs
}

func (s *fakeStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnectCalls++
	if s.failReconnects > 0 {
		s.failReconnects--
		return fmt.Errorf("resubscribe write failed")
	}
	return nil
}

// breakStream simulates the read loop dying: one error, then both
// channels close.
func (s *fakeStream) breakStream(err error) {
	s.mu.Lock()
	ticks, errs := s.ticks, s.errs
	s.mu.Unlock()
	errs <- err
	close(errs)
	close(ticks)
}

func (s *fakeStream) counts() (reads, reconnects int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCalls, s.reconnectCalls
}

func (s *fakeStream) send(t *models.Tick) {
	s.mu.Lock()
	ticks := s.ticks
	s.mu.Unlock()
	ticks <- t
}

func TestCollectorRetriesFailedReconnect(t *testing.T) {
	stream := &fakeStream{failReconnects: 1}
	builder, _, m := newTestBuilder([]drepo.Timeframe{drepo.TF1m})
	board := NewQuoteBoard(newMemQuoteStore(), &stubProvider{}, m)
	ingest := NewTickIngest(builder, board, m)
	c := NewTickCollector(stream, ingest, m, nil, []string{"AAPL"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	stream.breakStream(fmt.Errorf("read: connection reset"))

	// the first Reconnect fails; the collector must keep asking until the
	// stream is back and then re-open the read channels
	deadline := time.Now().Add(3 * time.Second)
	for {
		reads, reconnects := stream.counts()
		if reads >= 2 && reconnects >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("collector gave up: reads=%d reconnects=%d", reads, reconnects)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// ingest must be live again on the replaced channels
	at := time.Date(2025, 3, 3, 14, 30, 5, 0, time.UTC)
	stream.send(tick("AAPL", 100, 1, at))
	deadline = time.Now().Add(2 * time.Second)
	for {
		if _, ok := builder.OpenBar("AAPL", drepo.TF1m); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("tick after reconnect never reached the builder")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
