package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by the Polygon stocks WebSocket.
// One connection carries every subscription; the subscribed set survives
// reconnects and is replayed after auth.
type Client struct {
	apiKey       string
	websocketURL string
	delay        time.Duration // initial reconnect backoff
	maxBackoff   time.Duration
	pingInterval time.Duration

	mu         sync.RWMutex
	conn       *websocket.Conn
	connected  bool
	subscribed map[string]struct{}
}

// New creates a new Polygon MarketStream.
func New(apiKey, websocketURL string, reconnectDelay, maxBackoff, pingInterval time.Duration) drepo.MarketStream {
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	return &Client{
		apiKey:       apiKey,
		websocketURL: websocketURL,
		delay:        reconnectDelay,
		maxBackoff:   maxBackoff,
		pingInterval: pingInterval,
		subscribed:   make(map[string]struct{}),
	}
}

type wsAction struct {
	Action string `json:"action"`
	Params string `json:"params,omitempty"`
}

// pgTrade is a Polygon "T" event.
type pgTrade struct {
	Ev  string  `json:"ev"`
	Sym string  `json:"sym"`
	P   float64 `json:"p"`
	S   float64 `json:"s"`
	T   int64   `json:"t"` // SIP ms
}

// Connect dials the WebSocket and authenticates.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout:  10 * time.Second,
		EnableCompression: true,
	}
	conn, _, err := dialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("polygon connect: %w", err)
	}
	if err := conn.WriteJSON(wsAction{Action: "auth", Params: c.apiKey}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("polygon auth: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	return nil
}

// Subscribe adds symbols to the stream. Already-subscribed symbols are
// ignored; the set is replayed after every reconnect.
func (c *Client) Subscribe(ctx context.Context, symbols []string) error {
	c.mu.Lock()
	conn, ok := c.conn, c.connected
	fresh := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := c.subscribed[s]; !dup {
			c.subscribed[s] = struct{}{}
			fresh = append(fresh, s)
		}
	}
	c.mu.Unlock()

	if !ok || conn == nil {
		return fmt.Errorf("polygon not connected")
	}
	if len(fresh) == 0 {
		return nil
	}
	return conn.WriteJSON(wsAction{Action: "subscribe", Params: tradeChannels(fresh)})
}

// Unsubscribe drops symbols from the stream and the resubscribe set.
func (c *Client) Unsubscribe(ctx context.Context, symbols []string) error {
	c.mu.Lock()
	conn, ok := c.conn, c.connected
	dropped := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if _, sub := c.subscribed[s]; sub {
			delete(c.subscribed, s)
			dropped = append(dropped, s)
		}
	}
	c.mu.Unlock()

	if !ok || conn == nil || len(dropped) == 0 {
		return nil
	}
	return conn.WriteJSON(wsAction{Action: "unsubscribe", Params: tradeChannels(dropped)})
}

// tradeChannels renders the "T.SYM1,T.SYM2" params string.
func tradeChannels(symbols []string) string {
	parts := make([]string, 0, len(symbols))
	for _, s := range symbols {
		parts = append(parts, "T."+s)
	}
	return strings.Join(parts, ",")
}

// Read streams Tick events and errors. Frames arrive as JSON arrays of
// events tagged by "ev"; anything that is not a trade is ignored.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})

	// ping loop; stops with the read loop so a Read per reconnect does not
	// accumulate pingers on the shared connection
	go func() {
		interval := c.pingInterval
		if interval <= 0 {
			interval = 45 * time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				c.mu.RLock()
				conn := c.conn
				c.mu.RUnlock()
				if conn != nil {
					_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(done)
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()
			if conn == nil {
				errs <- fmt.Errorf("polygon conn nil")
				return
			}

			var frames []json.RawMessage
			if err := conn.ReadJSON(&frames); err != nil {
				errs <- fmt.Errorf("polygon read: %w", err)
				return
			}
			for _, raw := range frames {
				var ev struct {
					Ev string `json:"ev"`
				}
				_ = json.Unmarshal(raw, &ev)
				if ev.Ev != "T" {
					// "status" and aggregate frames are not needed here
					continue
				}
				var t pgTrade
				if err := json.Unmarshal(raw, &t); err != nil {
					continue
				}
				tick := &models.Tick{
					Symbol:    t.Sym,
					Price:     t.P,
					Size:      t.S,
					Timestamp: t.T / 1000,
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes the connection and retries with capped exponential
// backoff until connected or ctx is done, then replays subscriptions.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()

	backoff := c.delay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if err := c.Connect(ctx); err == nil {
			break
		}
		if backoff < c.maxBackoff {
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}
	}

	c.mu.RLock()
	pending := make([]string, 0, len(c.subscribed))
	for s := range c.subscribed {
		pending = append(pending, s)
	}
	conn := c.conn
	c.mu.RUnlock()

	if len(pending) == 0 || conn == nil {
		return nil
	}
	if err := conn.WriteJSON(wsAction{Action: "subscribe", Params: tradeChannels(pending)}); err != nil {
		return fmt.Errorf("polygon resubscribe: %w", err)
	}
	return nil
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
