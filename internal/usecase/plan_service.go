package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
	"TradeDeck/pkg/cache"
	applogger "TradeDeck/pkg/logger"
)

// PlanService serves AI trade plans with a per-symbol freshness window.
// A cached plan younger than the TTL is returned as-is; anything older is
// regenerated on demand. A cache lock keeps concurrent requests for the
// same symbol down to one upstream LLM call.
type PlanService struct {
	gen         drepo.PlanGenerator
	store       drepo.CandleStore
	board       *QuoteBoard
	cache       cache.Service
	metrics     drepo.Metrics
	logger      *applogger.Logger
	ttl         time.Duration
	contextBars int
}

func NewPlanService(
	gen drepo.PlanGenerator,
	store drepo.CandleStore,
	board *QuoteBoard,
	c cache.Service,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	ttl time.Duration,
	contextBars int,
) *PlanService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if contextBars <= 0 {
		contextBars = 120
	}
	return &PlanService{
		gen:         gen,
		store:       store,
		board:       board,
		cache:       c,
		metrics:     metrics,
		logger:      logger,
		ttl:         ttl,
		contextBars: contextBars,
	}
}

func planKey(symbol string) string { return "plan:" + symbol }
func lockKey(symbol string) string { return "plan:lock:" + symbol }

// GetPlan returns the cached plan for symbol, regenerating when stale or
// when the caller forces a refresh.
func (s *PlanService) GetPlan(ctx context.Context, symbol string, refresh bool) (*models.TradePlan, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	if !refresh {
		if plan, ok := s.cached(ctx, symbol); ok {
			return plan, nil
		}
	}

	locked, err := s.cache.TryLock(ctx, lockKey(symbol), 30*time.Second)
	if err != nil {
		s.metrics.RecordError("plan_lock")
		locked = true // cache down: generate anyway, best effort
	}
	if !locked {
		// someone else is generating; wait for their result
		for i := 0; i < 10; i++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
			if plan, ok := s.cached(ctx, symbol); ok {
				return plan, nil
			}
		}
		// holder died or is slow; fall through and generate ourselves
	} else {
		defer func() { _ = s.cache.Unlock(ctx, lockKey(symbol)) }()
	}

	return s.generate(ctx, symbol)
}

func (s *PlanService) cached(ctx context.Context, symbol string) (*models.TradePlan, bool) {
	var plan models.TradePlan
	err := s.cache.Get(ctx, planKey(symbol), &plan)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.RecordError("plan_cache_get")
		}
		return nil, false
	}
	if time.Since(plan.GeneratedAt) > s.ttl {
		return nil, false
	}
	return &plan, true
}

func (s *PlanService) generate(ctx context.Context, symbol string) (*models.TradePlan, error) {
	start := time.Now()

	quote, err := s.board.Get(ctx, symbol)
	if err != nil {
		// the model can still produce a plan from candles alone
		s.logger.Warn("plan context quote unavailable",
			applogger.String("symbol", symbol), applogger.Error(err))
		quote = nil
	}
	candles, err := s.store.GetLatestNCandles(ctx, symbol, s.contextBars, drepo.TF1m)
	if err != nil {
		s.logger.Warn("plan context candles unavailable",
			applogger.String("symbol", symbol), applogger.Error(err))
	}

	plan, err := s.gen.Generate(ctx, symbol, quote, candles)
	if err != nil {
		s.metrics.RecordError("plan_generate")
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	if !plan.SanityOK {
		s.logger.Warn("plan failed sanity check",
			applogger.String("symbol", symbol),
			applogger.String("action", plan.Action),
			applogger.Float64("entry", plan.Entry),
			applogger.Float64("stop", plan.Stop),
			applogger.Float64("target", plan.Target))
		s.metrics.RecordError("plan_sanity")
	}

	if err := s.cache.Set(ctx, planKey(symbol), plan, s.ttl); err != nil {
		s.metrics.RecordError("plan_cache_set")
	}
	s.metrics.RecordLatency("plan_generate", time.Since(start).Seconds())
	return plan, nil
}

// Sweep deletes expired plans from the cache. Entries also carry a TTL, so
// this only matters for backends that keep expired values around.
func (s *PlanService) Sweep(ctx context.Context) error {
	return s.cache.DeleteByPattern(ctx, "plan:*")
}
