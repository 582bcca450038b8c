package models

import "time"

// Tick is a single trade print from the market-data vendor.
type Tick struct {
	Symbol    string
	Price     float64
	Size      float64
	Timestamp int64 // unix seconds
}

// Quote is the latest known state of a symbol for watchlist display.
// It is overwritten on every tick; no history is retained here.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Last          float64   `json:"last"`
	PrevClose     float64   `json:"prev_close,omitempty"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        float64   `json:"volume,omitempty"`
	Source        string    `json:"source,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WithLast returns a copy of q updated with a new last price, recomputing
// change fields against the known previous close.
func (q Quote) WithLast(last float64, at time.Time) Quote {
	q.Last = last
	q.UpdatedAt = at
	if q.PrevClose > 0 {
		q.Change = last - q.PrevClose
		q.ChangePercent = q.Change / q.PrevClose * 100
	}
	return q
}

// Candle represents an OHLCV bar aligned to a timeframe bucket.
// The bar for the current bucket is mutated in place until a tick crosses
// the bucket boundary; after that it is immutable.
type Candle struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Bucket    time.Time `json:"bucket"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Apply folds a tick into the bar.
func (c *Candle) Apply(price, size float64) {
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price
	c.Volume += size
}

// NewCandle opens a bar seeded from the first tick of a bucket.
func NewCandle(symbol, timeframe string, bucket time.Time, price, size float64) *Candle {
	return &Candle{
		Symbol:    symbol,
		Timeframe: timeframe,
		Bucket:    bucket,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    size,
	}
}
