package usecase

import (
	"context"
	"fmt"
	"sync"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
)

type barKey struct {
	symbol string
	tf     drepo.Timeframe
}

// CandleBuilder folds ticks into OHLCV bars, one open bar per
// (symbol, timeframe). A tick inside the open bucket extends the bar;
// a tick past the bucket boundary closes it and opens the next one.
// Ticks older than the open bucket are dropped; the feed carries no
// ordering guarantee.
type CandleBuilder struct {
	mu      sync.Mutex
	open    map[barKey]*models.Candle
	tfs     []drepo.Timeframe
	proc    *BarProcessor
	metrics drepo.Metrics
}

// NewCandleBuilder creates a builder for the given timeframes.
func NewCandleBuilder(tfs []drepo.Timeframe, proc *BarProcessor, metrics drepo.Metrics) *CandleBuilder {
	if len(tfs) == 0 {
		tfs = drepo.All()
	}
	return &CandleBuilder{
		open:    make(map[barKey]*models.Candle),
		tfs:     tfs,
		proc:    proc,
		metrics: metrics,
	}
}

// Process folds one tick into every timeframe and routes any bars it closes.
func (b *CandleBuilder) Process(ctx context.Context, t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}
	return b.Route(ctx, b.Fold(t))
}

// Fold mutates the open bars for one tick and returns the bars it closed,
// without routing them. Folding is not repeatable for the same tick; callers
// that retry must retry Route with the bars Fold already returned.
func (b *CandleBuilder) Fold(t *models.Tick) []*models.Candle {
	if t == nil {
		return nil
	}
	return b.fold(t)
}

// Route sends closed bars downstream.
func (b *CandleBuilder) Route(ctx context.Context, closed []*models.Candle) error {
	if len(closed) == 0 {
		return nil
	}
	if err := b.proc.ProcessBatch(ctx, closed); err != nil {
		return fmt.Errorf("route closed bars: %w", err)
	}
	return nil
}

// fold mutates open bars under the lock and returns the ones that closed.
func (b *CandleBuilder) fold(t *models.Tick) []*models.Candle {
	tickTime := tsToTime(t.Timestamp)

	b.mu.Lock()
	defer b.mu.Unlock()

	var closed []*models.Candle
	for _, tf := range b.tfs {
		bucket := tf.Bucket(tickTime)
		key := barKey{symbol: t.Symbol, tf: tf}
		cur, ok := b.open[key]
		if !ok {
			b.open[key] = models.NewCandle(t.Symbol, string(tf), bucket, t.Price, t.Size)
			continue
		}
		switch {
		case bucket.Equal(cur.Bucket):
			cur.Apply(t.Price, t.Size)
		case bucket.After(cur.Bucket):
			closed = append(closed, cur)
			b.open[key] = models.NewCandle(t.Symbol, string(tf), bucket, t.Price, t.Size)
		default:
			// late tick from before the open bucket
			b.metrics.RecordError("late_tick_" + string(tf))
		}
	}
	return closed
}

// OpenBar returns a copy of the currently forming bar, if any.
func (b *CandleBuilder) OpenBar(symbol string, tf drepo.Timeframe) (models.Candle, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.open[barKey{symbol: symbol, tf: tf}]
	if !ok {
		return models.Candle{}, false
	}
	return *cur, true
}

// Flush routes all open bars downstream, best effort. Called on shutdown so
// partially formed bars are not silently lost.
func (b *CandleBuilder) Flush(ctx context.Context) error {
	b.mu.Lock()
	bars := make([]*models.Candle, 0, len(b.open))
	for _, c := range b.open {
		bars = append(bars, c)
	}
	b.open = make(map[barKey]*models.Candle)
	b.mu.Unlock()

	if len(bars) == 0 {
		return nil
	}
	return b.proc.ProcessBatch(ctx, bars)
}
