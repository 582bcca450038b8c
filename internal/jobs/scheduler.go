package jobs

import (
	"context"
	"time"

	"TradeDeck/internal/usecase"
	applogger "TradeDeck/pkg/logger"
	"TradeDeck/pkg/queue"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the recurring maintenance work: nightly daily-candle
// backfill for every watched symbol and periodic plan-cache sweeps.
type Scheduler struct {
	cron         *cron.Cron
	publisher    queue.QueueService
	lists        *usecase.WatchlistUseCase
	plans        *usecase.PlanService
	logger       *applogger.Logger
	backfillSpec string
	backfillDays int
	sweepSpec    string
	seedSymbols  []string
}

type SchedulerOption func(*Scheduler)

// WithBackfill sets the cron spec and lookback for the backfill run.
func WithBackfill(spec string, days int) SchedulerOption {
	return func(s *Scheduler) {
		s.backfillSpec = spec
		if days > 0 {
			s.backfillDays = days
		}
	}
}

// WithSweep sets the cron spec for the plan-cache sweep.
func WithSweep(spec string) SchedulerOption {
	return func(s *Scheduler) {
		s.sweepSpec = spec
	}
}

// WithSeedSymbols adds symbols backfilled even when no watchlist holds them.
func WithSeedSymbols(symbols []string) SchedulerOption {
	return func(s *Scheduler) {
		s.seedSymbols = symbols
	}
}

func NewScheduler(
	publisher queue.QueueService,
	lists *usecase.WatchlistUseCase,
	plans *usecase.PlanService,
	logger *applogger.Logger,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		cron:         cron.New(),
		publisher:    publisher,
		lists:        lists,
		plans:        plans,
		logger:       logger,
		backfillSpec: "30 0 * * *",
		backfillDays: 30,
		sweepSpec:    "*/30 * * * *",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Start() error {
	if s.backfillSpec != "" {
		if _, err := s.cron.AddFunc(s.backfillSpec, s.runBackfill); err != nil {
			return err
		}
	}
	if s.sweepSpec != "" {
		if _, err := s.cron.AddFunc(s.sweepSpec, s.runSweep); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		applogger.String("backfill", s.backfillSpec),
		applogger.String("sweep", s.sweepSpec))
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runBackfill enqueues one job per watched symbol.
func (s *Scheduler) runBackfill() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	symbols, err := s.lists.Symbols(ctx)
	if err != nil {
		s.logger.Error("backfill: listing symbols failed", applogger.Error(err))
	}
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		seen[sym] = struct{}{}
	}
	for _, sym := range s.seedSymbols {
		if _, ok := seen[sym]; !ok {
			symbols = append(symbols, sym)
			seen[sym] = struct{}{}
		}
	}

	enqueued := 0
	for _, sym := range symbols {
		payload := BackfillPayload{Symbol: sym, Days: s.backfillDays}
		if err := s.publisher.PublishMessage(ctx, BackfillMsgType, payload); err != nil {
			s.logger.Error("backfill: enqueue failed",
				applogger.String("symbol", sym), applogger.Error(err))
			continue
		}
		enqueued++
	}
	s.logger.Info("backfill scheduled", applogger.Int("symbols", enqueued))
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.plans.Sweep(ctx); err != nil {
		s.logger.Error("plan sweep failed", applogger.Error(err))
		return
	}
	s.logger.Debug("plan sweep complete")
}
