package usecase

import (
	"context"
	"sync"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
	mid "TradeDeck/internal/middleware"
)

// maxPendingRoutes bounds bars parked for re-routing after a backend error.
const maxPendingRoutes = 1024

// TickIngest is the downstream end of the pipeline: every accepted tick
// feeds the candle builder and overwrites the quote board. Processing is
// idempotent per tick: the pipeline retries a tick after a downstream
// error, and a retry must only re-attempt routing the bars the tick
// closed, never re-apply the tick to the board or the open bars.
type TickIngest struct {
	builder *CandleBuilder
	board   *QuoteBoard
	metrics drepo.Metrics

	mu      sync.Mutex
	pending map[*models.Tick][]*models.Candle // closed bars awaiting routing
}

func NewTickIngest(builder *CandleBuilder, board *QuoteBoard, metrics drepo.Metrics) *TickIngest {
	return &TickIngest{
		builder: builder,
		board:   board,
		metrics: metrics,
		pending: make(map[*models.Tick][]*models.Candle),
	}
}

func (i *TickIngest) Process(ctx context.Context, t *models.Tick) error {
	i.mu.Lock()
	bars, retry := i.pending[t]
	if retry {
		delete(i.pending, t)
	}
	i.mu.Unlock()

	if !retry {
		i.metrics.RecordTick(t.Symbol)
		i.board.Apply(ctx, t)
		bars = i.builder.Fold(t)
	}
	if len(bars) == 0 {
		return nil
	}

	if err := i.builder.Route(ctx, bars); err != nil {
		i.mu.Lock()
		if len(i.pending) < maxPendingRoutes {
			i.pending[t] = bars
		} else {
			i.metrics.RecordError("pending_route_drop")
		}
		i.mu.Unlock()
		return err
	}
	return nil
}

// flushPending makes a last routing attempt for bars whose earlier routing
// failed. Called on shutdown.
func (i *TickIngest) flushPending(ctx context.Context) error {
	i.mu.Lock()
	var bars []*models.Candle
	for _, bs := range i.pending {
		bars = append(bars, bs...)
	}
	i.pending = make(map[*models.Tick][]*models.Candle)
	i.mu.Unlock()

	if len(bars) == 0 {
		return nil
	}
	return i.builder.Route(ctx, bars)
}

// TickCollector owns the market stream lifecycle: connect, subscribe,
// consume, reconnect on read errors.
type TickCollector struct {
	stream  drepo.MarketStream
	ingest  *TickIngest
	metrics drepo.Metrics
	pipe    *mid.StreamPipeline
	symbols []string
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(stream drepo.MarketStream, ingest *TickIngest, metrics drepo.Metrics, pipe *mid.StreamPipeline, symbols []string) *TickCollector {
	return &TickCollector{stream: stream, ingest: ingest, metrics: metrics, pipe: pipe, symbols: symbols}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx, c.symbols); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

// Watch subscribes additional symbols on the live stream.
func (c *TickCollector) Watch(ctx context.Context, symbols []string) error {
	return c.stream.Subscribe(ctx, symbols)
}

// Unwatch drops symbols from the live stream.
func (c *TickCollector) Unwatch(ctx context.Context, symbols []string) error {
	return c.stream.Unsubscribe(ctx, symbols)
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err == nil {
				continue
			}
			// the read loop sent its error (or already closed both
			// channels); either way it is gone and must be replaced
			c.metrics.RecordError("stream")
			if tickCh, errCh = c.reconnect(ctx); tickCh == nil {
				return
			}
		case t, ok := <-tickCh:
			if !ok {
				if tickCh, errCh = c.reconnect(ctx); tickCh == nil {
					return
				}
				continue
			}
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.ingest.Process(ctx, t)
			}
		}
	}
}

// reconnect retries until the stream is back and returns fresh read
// channels. A dead stream is never abandoned while ctx lives; nil channels
// mean ctx expired.
func (c *TickCollector) reconnect(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		c.metrics.RecordReconnect()
		if err := c.stream.Reconnect(ctx); err == nil {
			return c.stream.Read(ctx)
		}
		c.metrics.RecordError("stream_reconnect")
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(time.Second):
		}
	}
}

// Ingest returns the underlying TickIngest for lifecycle management.
func (c *TickCollector) Ingest() *TickIngest { return c.ingest }

// Shutdown stops the pipeline, flushes open bars, and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	if c.ingest != nil && c.ingest.builder != nil {
		_ = c.ingest.flushPending(ctx)
		_ = c.ingest.builder.Flush(ctx)
	}
	return c.stream.Close()
}
