package repository

import "time"

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
	TF1h Timeframe = "1h"
	TF1d Timeframe = "1d"
)

// All lists supported timeframes in ascending duration order.
func All() []Timeframe { return []Timeframe{TF1m, TF5m, TF1h, TF1d} }

// Duration returns the bucket width of the timeframe.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1m:
		return time.Minute
	case TF5m:
		return 5 * time.Minute
	case TF1h:
		return time.Hour
	case TF1d:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Bucket aligns t down to the timeframe boundary.
func (tf Timeframe) Bucket(t time.Time) time.Time {
	return t.UTC().Truncate(tf.Duration())
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1m, TF5m, TF1h, TF1d:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1m }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}
