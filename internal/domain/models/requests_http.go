package models

// Requests for the HTTP API. Defined in domain for consistency and reuse.

type QuoteRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type QuotesRequest struct {
	Symbols   string `query:"symbols" json:"symbols"`     // comma-separated
	Watchlist string `query:"watchlist" json:"watchlist"` // mutually exclusive with symbols
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 1h 1d"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type PlanRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required"`
	Refresh bool   `query:"refresh" json:"refresh"`
}

type WatchlistUpsertRequest struct {
	Name    string   `param:"name" json:"name" validate:"required,min=1,max=64"`
	Symbols []string `json:"symbols" validate:"required,max=100,dive,min=1,max=12"`
}

type IndicatorUpsertRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required,min=1,max=64"`
	Kind      string `json:"kind" validate:"required,oneof=sma ema rsi"`
	Period    int    `json:"period" default:"14" validate:"gte=2,lte=500"`
	Color     string `json:"color"`
	LineWidth int    `json:"line_width" default:"1" validate:"gte=1,lte=8"`
}

type IndicatorSeriesRequest struct {
	ID     string `param:"id" json:"id" validate:"required"`
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 1h 1d"`
	N      int    `query:"n" json:"n" default:"300" validate:"gte=1,lte=5000"`
}
