package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFinnhubDailyCandlesTruncatedSeries(t *testing.T) {
	// vendor response with parallel arrays of unequal length
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"s": "ok",
			"t": [1741046400, 1741132800, 1741219200],
			"o": [10, 11],
			"h": [12, 13, 14],
			"l": [9, 10, 11],
			"c": [11, 12, 13],
			"v": [100, 200, 300]
		}`))
	}))
	defer srv.Close()

	f := NewFinnhubREST(srv.URL, "token", 5*time.Second)
	candles, err := f.FetchDailyCandles(context.Background(), "AAPL", 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected candles clamped to shortest series, got %d", len(candles))
	}
	if candles[1].Open != 11 || candles[1].Close != 12 {
		t.Fatalf("unexpected candle: %+v", candles[1])
	}
}

func TestFinnhubDailyCandlesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"s": "no_data"}`))
	}))
	defer srv.Close()

	f := NewFinnhubREST(srv.URL, "token", 5*time.Second)
	if _, err := f.FetchDailyCandles(context.Background(), "AAPL", 3); err == nil {
		t.Fatalf("expected error for non-ok status")
	}
}
