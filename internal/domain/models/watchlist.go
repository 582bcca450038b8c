package models

import "time"

// Watchlist is a named set of symbols the user follows.
type Watchlist struct {
	Name      string    `json:"name"`
	Symbols   []string  `json:"symbols"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether sym is already on the list.
func (w *Watchlist) Contains(sym string) bool {
	for _, s := range w.Symbols {
		if s == sym {
			return true
		}
	}
	return false
}

// IndicatorConfig describes one chart overlay: which calculation to run and
// how to draw the resulting line. Display state only, no computed invariant.
type IndicatorConfig struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"` // "sma" | "ema" | "rsi"
	Period    int       `json:"period"`
	Color     string    `json:"color,omitempty"`
	LineWidth int       `json:"line_width,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IndicatorPoint is one computed value of an indicator series.
type IndicatorPoint struct {
	Bucket time.Time `json:"bucket"`
	Value  float64   `json:"value"`
}
