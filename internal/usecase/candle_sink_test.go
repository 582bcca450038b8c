package usecase

import (
	"context"
	"testing"
	"time"
)

func TestKafkaCandlesHandlerPersistsBar(t *testing.T) {
	store := &memCandleStore{}
	h := NewKafkaCandlesHandler("candles.closed", store, newFakeMetrics(), testLogger(t))

	payload := []byte(`{"symbol":"AAPL","timeframe":"1m","bucket":1741012200,"o":100,"h":102,"l":99,"c":101,"v":1200}`)
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 insert, got %d", store.count())
	}
	c := store.inserted[0]
	if c.Symbol != "AAPL" || c.Timeframe != "1m" {
		t.Fatalf("unexpected candle: %+v", c)
	}
	if !c.Bucket.Equal(time.Unix(1741012200, 0).UTC()) {
		t.Fatalf("unexpected bucket %v", c.Bucket)
	}
}

func TestKafkaCandlesHandlerDropsMalformed(t *testing.T) {
	store := &memCandleStore{}
	h := NewKafkaCandlesHandler("candles.closed", store, newFakeMetrics(), testLogger(t))

	// malformed JSON must not be retried
	if err := h.Handle(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("malformed payload must return nil, got %v", err)
	}
	// missing symbol likewise
	if err := h.Handle(context.Background(), []byte(`{"timeframe":"1m","bucket":1741012200}`)); err != nil {
		t.Fatalf("invalid payload must return nil, got %v", err)
	}
	if store.count() != 0 {
		t.Fatalf("nothing should be persisted, got %d", store.count())
	}
}
