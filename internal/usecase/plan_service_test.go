package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"TradeDeck/internal/domain/models"
	"TradeDeck/pkg/cache"
	applogger "TradeDeck/pkg/logger"
)

type stubPlanGenerator struct {
	mu    sync.Mutex
	calls int
	plan  models.TradePlan
}

func (g *stubPlanGenerator) Generate(_ context.Context, symbol string, _ *models.Quote, _ []models.Candle) (*models.TradePlan, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	p := g.plan
	p.Symbol = symbol
	p.GeneratedAt = time.Now().UTC()
	p.SanityOK = p.SanityCheck()
	return &p, nil
}

func (g *stubPlanGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestPlanService(t *testing.T, gen *stubPlanGenerator, ttl time.Duration) *PlanService {
	t.Helper()
	store := &memCandleStore{}
	provider := &stubProvider{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Last: 210, PrevClose: 200},
	}}
	board := NewQuoteBoard(newMemQuoteStore(), provider, newFakeMetrics())
	return NewPlanService(gen, store, board, cache.NewMemoryCache(), newFakeMetrics(), testLogger(t), ttl, 50)
}

func TestPlanServiceCachesWithinTTL(t *testing.T) {
	gen := &stubPlanGenerator{plan: models.TradePlan{
		Action: "long", Entry: 210, Stop: 205, Target: 220, Confidence: 0.7,
	}}
	svc := newTestPlanService(t, gen, 5*time.Minute)

	first, err := svc.GetPlan(context.Background(), "AAPL", false)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if !first.SanityOK {
		t.Fatalf("expected plan to pass sanity check: %+v", first)
	}

	second, err := svc.GetPlan(context.Background(), "AAPL", false)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if gen.callCount() != 1 {
		t.Fatalf("second call within TTL must hit the cache, got %d generations", gen.callCount())
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Fatalf("cached plan must carry the original timestamp")
	}
}

func TestPlanServiceRefreshRegenerates(t *testing.T) {
	gen := &stubPlanGenerator{plan: models.TradePlan{
		Action: "long", Entry: 210, Stop: 205, Target: 220,
	}}
	svc := newTestPlanService(t, gen, 5*time.Minute)

	if _, err := svc.GetPlan(context.Background(), "AAPL", false); err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if _, err := svc.GetPlan(context.Background(), "AAPL", true); err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if gen.callCount() != 2 {
		t.Fatalf("refresh must regenerate, got %d generations", gen.callCount())
	}
}

func TestPlanServiceFlagsFailedSanityCheck(t *testing.T) {
	// stop above entry on a long: flagged, not rejected
	gen := &stubPlanGenerator{plan: models.TradePlan{
		Action: "long", Entry: 210, Stop: 215, Target: 220,
	}}
	svc := newTestPlanService(t, gen, 5*time.Minute)

	plan, err := svc.GetPlan(context.Background(), "AAPL", false)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if plan == nil {
		t.Fatalf("inconsistent plan must still be served")
	}
	if plan.SanityOK {
		t.Fatalf("expected sanity flag false: %+v", plan)
	}
}

func TestPlanServiceSymbolRequired(t *testing.T) {
	gen := &stubPlanGenerator{}
	svc := newTestPlanService(t, gen, time.Minute)
	if _, err := svc.GetPlan(context.Background(), "", false); err == nil {
		t.Fatalf("expected error for empty symbol")
	}
}
