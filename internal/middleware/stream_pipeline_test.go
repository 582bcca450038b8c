package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"TradeDeck/internal/domain/models"
)

type recordingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{errors: make(map[string]int)}
}

func (m *recordingMetrics) RecordTick(string)               {}
func (m *recordingMetrics) RecordBarClosed(string, string)  {}
func (m *recordingMetrics) RecordLastPrice(string, float64) {}
func (m *recordingMetrics) RecordLatency(string, float64)   {}
func (m *recordingMetrics) RecordReconnect()                {}
func (m *recordingMetrics) RecordFallback(string, string)   {}
func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *recordingMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type countingProc struct {
	mu   sync.Mutex
	seen int
	fail bool
}

func (p *countingProc) Process(_ context.Context, _ *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("downstream unavailable")
	}
	p.seen++
	return nil
}

func (p *countingProc) processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen
}

func validTick() *models.Tick {
	return &models.Tick{Symbol: "AAPL", Price: 100, Size: 1, Timestamp: time.Now().Unix()}
}

func TestPipelineRejectsInvalidTicks(t *testing.T) {
	proc := &countingProc{}
	m := newRecordingMetrics()
	p := NewStreamPipeline(proc, m)

	cases := []*models.Tick{
		nil,
		{Symbol: "", Price: 100, Size: 1, Timestamp: 1},
		{Symbol: "AAPL", Price: 0, Size: 1, Timestamp: 1},
		{Symbol: "AAPL", Price: -5, Size: 1, Timestamp: 1},
		{Symbol: "AAPL", Price: 100, Size: -1, Timestamp: 1},
		{Symbol: "AAPL", Price: 100, Size: 1, Timestamp: 0},
	}
	for i, tick := range cases {
		if err := p.Process(context.Background(), tick); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if proc.processed() != 0 {
		t.Fatalf("invalid ticks must not reach downstream, got %d", proc.processed())
	}
	if m.count("pipeline_validate") != len(cases) {
		t.Fatalf("expected %d validation errors, got %d", len(cases), m.count("pipeline_validate"))
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &countingProc{}
	m := newRecordingMetrics()
	p := NewStreamPipeline(proc, m, WithMaxRPS(1))

	// two ticks for the same symbol inside the 1 rps window
	if err := p.Process(context.Background(), validTick()); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if err := p.Process(context.Background(), validTick()); err != nil {
		t.Fatalf("throttled tick must be dropped silently, got %v", err)
	}
	if proc.processed() != 1 {
		t.Fatalf("expected 1 forwarded tick, got %d", proc.processed())
	}
	if m.count("pipeline_throttle") != 1 {
		t.Fatalf("expected 1 throttle record, got %d", m.count("pipeline_throttle"))
	}

	// a different symbol is not affected
	other := validTick()
	other.Symbol = "MSFT"
	if err := p.Process(context.Background(), other); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if proc.processed() != 2 {
		t.Fatalf("expected 2 forwarded ticks, got %d", proc.processed())
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &countingProc{fail: true}
	m := newRecordingMetrics()
	p := NewStreamPipeline(proc, m, WithBufferSize(4))

	if err := p.Process(context.Background(), validTick()); err == nil {
		t.Fatalf("expected downstream error surfaced")
	}
	if m.count("pipeline_process") != 1 {
		t.Fatalf("expected process error recorded, got %d", m.count("pipeline_process"))
	}

	// buffered tick drains once downstream recovers
	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.processed() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if proc.processed() != 1 {
		t.Fatalf("expected buffered tick flushed, got %d", proc.processed())
	}
}
