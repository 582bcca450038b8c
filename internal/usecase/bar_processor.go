package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
)

// BarProcessor routes closed candles to the configured backend.
type BarProcessor struct {
	pub     drepo.BarPublisher
	store   drepo.CandleStore
	metrics drepo.Metrics
	backend string
}

// NewBarProcessor creates a new BarProcessor instance.
func NewBarProcessor(
	pub drepo.BarPublisher,
	store drepo.CandleStore,
	metrics drepo.Metrics,
	backend string,
) *BarProcessor {
	return &BarProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single closed candle to the configured backend.
func (p *BarProcessor) Process(ctx context.Context, c *models.Candle) error {
	if c == nil {
		return fmt.Errorf("candle is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, c)
	case "clickhouse":
		err = p.store.Insert(ctx, c)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("route_bar")
		return fmt.Errorf("route bar: %w", err)
	}

	p.metrics.RecordBarClosed(p.backend, c.Timeframe)
	p.metrics.RecordLatency("route_bar", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple closed candles in a batch.
func (p *BarProcessor) ProcessBatch(ctx context.Context, cs []*models.Candle) error {
	if len(cs) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, cs)
	case "clickhouse":
		err = p.store.InsertBatch(ctx, cs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("route_bar_batch")
		return fmt.Errorf("route bar batch: %w", err)
	}

	for _, c := range cs {
		p.metrics.RecordBarClosed(p.backend, c.Timeframe)
	}
	p.metrics.RecordLatency("route_bar_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *BarProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
