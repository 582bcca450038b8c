package repository

import (
	"context"
	"time"

	"TradeDeck/internal/domain/models"
)

// MarketStream is the realtime tick feed from the market-data vendor.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbols []string) error
	Unsubscribe(ctx context.Context, symbols []string) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// BarPublisher publishes closed candles to a message broker.
type BarPublisher interface {
	Publish(ctx context.Context, c *models.Candle) error
	PublishBatch(ctx context.Context, cs []*models.Candle) error
	Close() error
}

// CandleStore persists and queries OHLCV bars.
type CandleStore interface {
	Init(ctx context.Context) error // ensure tables
	Insert(ctx context.Context, c *models.Candle) error
	InsertBatch(ctx context.Context, cs []*models.Candle) error
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
	Health(ctx context.Context) error
	Close() error
}

// QuoteStore holds the latest quote per symbol, best effort.
type QuoteStore interface {
	Put(ctx context.Context, q *models.Quote) error
	Get(ctx context.Context, symbol string) (*models.Quote, error)
	GetMany(ctx context.Context, symbols []string) (map[string]models.Quote, error)
}

// QuoteProvider is a REST market-data vendor used for cold quotes and
// historical backfill.
type QuoteProvider interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
	FetchDailyCandles(ctx context.Context, symbol string, days int) ([]models.Candle, error)
}

// PlanGenerator produces a trade plan from recent market context.
type PlanGenerator interface {
	Generate(ctx context.Context, symbol string, quote *models.Quote, candles []models.Candle) (*models.TradePlan, error)
}

// WatchlistStore persists named watchlists.
type WatchlistStore interface {
	Put(ctx context.Context, w *models.Watchlist) error
	Get(ctx context.Context, name string) (*models.Watchlist, error)
	List(ctx context.Context) ([]models.Watchlist, error)
	Delete(ctx context.Context, name string) error
}

// IndicatorStore persists indicator display configs.
type IndicatorStore interface {
	Put(ctx context.Context, c *models.IndicatorConfig) error
	Get(ctx context.Context, id string) (*models.IndicatorConfig, error)
	List(ctx context.Context) ([]models.IndicatorConfig, error)
	Delete(ctx context.Context, id string) error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordTick(symbol string)
	RecordBarClosed(backend string, timeframe string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordReconnect()
	RecordFallback(from, to string)
}
