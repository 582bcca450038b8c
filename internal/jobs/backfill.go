package jobs

import (
	"context"
	"fmt"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
	applogger "TradeDeck/pkg/logger"
	"TradeDeck/pkg/queue"
)

const (
	BackfillJobName = "backfill_daily_candles"
	BackfillMsgType = "backfill"
)

// BackfillPayload is the unit of backfill work: one symbol, N days back.
type BackfillPayload struct {
	Symbol string `json:"symbol"`
	Days   int    `json:"days"`
}

// BackfillJob pulls daily candles from the REST providers and persists
// them. Runs on the Redis queue so a burst of symbols drains at worker
// pace instead of slamming the vendor.
type BackfillJob struct {
	provider drepo.QuoteProvider
	store    drepo.CandleStore
	metrics  drepo.Metrics
	logger   *applogger.Logger
}

func NewBackfillJob(provider drepo.QuoteProvider, store drepo.CandleStore, metrics drepo.Metrics, logger *applogger.Logger) *BackfillJob {
	return &BackfillJob{provider: provider, store: store, metrics: metrics, logger: logger}
}

func (j *BackfillJob) Name() string { return BackfillJobName }
func (j *BackfillJob) Type() string { return BackfillMsgType }

func (j *BackfillJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[BackfillPayload](payload)
	if err != nil {
		return fmt.Errorf("backfill payload: %w", err)
	}
	if p.Symbol == "" {
		return fmt.Errorf("backfill payload: symbol required")
	}
	if p.Days <= 0 {
		p.Days = 30
	}

	candles, err := j.provider.FetchDailyCandles(ctx, p.Symbol, p.Days)
	if err != nil {
		j.metrics.RecordError("backfill_fetch")
		return fmt.Errorf("backfill fetch %s: %w", p.Symbol, err)
	}
	if len(candles) == 0 {
		j.logger.Debug("backfill: no candles returned", applogger.String("symbol", p.Symbol))
		return nil
	}

	out := make([]*models.Candle, len(candles))
	for i := range candles {
		out[i] = &candles[i]
	}
	if err := j.store.InsertBatch(ctx, out); err != nil {
		j.metrics.RecordError("backfill_insert")
		return fmt.Errorf("backfill insert %s: %w", p.Symbol, err)
	}
	j.logger.Info("backfill complete",
		applogger.String("symbol", p.Symbol),
		applogger.Int("days", p.Days),
		applogger.Int("bars", len(out)))
	return nil
}
