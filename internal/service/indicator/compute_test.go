package indicator

import (
	"math"
	"testing"
	"time"

	"TradeDeck/internal/domain/models"
)

func candlesFromCloses(closes []float64) []models.Candle {
	base := time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Symbol:    "AAPL",
			Timeframe: "1m",
			Bucket:    base.Add(time.Duration(i) * time.Minute),
			Close:     c,
		}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMASeries(t *testing.T) {
	candles := candlesFromCloses([]float64{1, 2, 3, 4, 5})
	points, err := SMASeries(candles, 3)
	if err != nil {
		t.Fatalf("sma: %v", err)
	}
	want := []float64{2, 3, 4}
	if len(points) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(points))
	}
	for i, w := range want {
		if !almostEqual(points[i].Value, w) {
			t.Fatalf("point %d: want %v, got %v", i, w, points[i].Value)
		}
	}
	// points align to the bucket of the bar completing the window
	if !points[0].Bucket.Equal(candles[2].Bucket) {
		t.Fatalf("unexpected first bucket %v", points[0].Bucket)
	}
}

func TestSMASeriesNotEnoughData(t *testing.T) {
	if _, err := SMASeries(candlesFromCloses([]float64{1, 2}), 3); err == nil {
		t.Fatalf("expected error for short series")
	}
	if _, err := SMASeries(candlesFromCloses([]float64{1, 2, 3}), 0); err == nil {
		t.Fatalf("expected error for zero period")
	}
}

func TestEMASeriesSeededWithSMA(t *testing.T) {
	candles := candlesFromCloses([]float64{2, 4, 6, 8})
	points, err := EMASeries(candles, 3)
	if err != nil {
		t.Fatalf("ema: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	// seed is SMA(2,4,6) = 4; k = 0.5; next = (8-4)*0.5 + 4 = 6
	if !almostEqual(points[0].Value, 4) {
		t.Fatalf("unexpected seed %v", points[0].Value)
	}
	if !almostEqual(points[1].Value, 6) {
		t.Fatalf("unexpected ema %v", points[1].Value)
	}
}

func TestRSISeriesAllGains(t *testing.T) {
	candles := candlesFromCloses([]float64{1, 2, 3, 4, 5, 6})
	points, err := RSISeries(candles, 3)
	if err != nil {
		t.Fatalf("rsi: %v", err)
	}
	for i, p := range points {
		if !almostEqual(p.Value, 100) {
			t.Fatalf("point %d: all-gain RSI must be 100, got %v", i, p.Value)
		}
	}
}

func TestRSISeriesMidrange(t *testing.T) {
	// alternating equal gains and losses settle toward 50
	candles := candlesFromCloses([]float64{10, 11, 10, 11, 10, 11, 10, 11})
	points, err := RSISeries(candles, 2)
	if err != nil {
		t.Fatalf("rsi: %v", err)
	}
	last := points[len(points)-1].Value
	if last <= 0 || last >= 100 {
		t.Fatalf("rsi out of range: %v", last)
	}
}

func TestComputeDispatch(t *testing.T) {
	candles := candlesFromCloses([]float64{1, 2, 3, 4, 5})

	for _, kind := range []string{"sma", "ema", "rsi"} {
		cfg := &models.IndicatorConfig{ID: "x", Name: kind, Kind: kind, Period: 3}
		if _, err := Compute(cfg, candles); err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
	}

	if _, err := Compute(&models.IndicatorConfig{Kind: "macd", Period: 3}, candles); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := Compute(nil, candles); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
