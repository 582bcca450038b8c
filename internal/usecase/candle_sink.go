package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
	applogger "TradeDeck/pkg/logger"
)

// KafkaCandlesHandler consumes closed bars from the candles topic and
// persists them to the candle store. Runs when the backend is "kafka" and
// a sink is enabled, so the broker decouples ingest from storage.
type KafkaCandlesHandler struct {
	topic   string
	store   drepo.CandleStore
	metrics drepo.Metrics
	logger  *applogger.Logger
}

func NewKafkaCandlesHandler(topic string, store drepo.CandleStore, metrics drepo.Metrics, logger *applogger.Logger) *KafkaCandlesHandler {
	return &KafkaCandlesHandler{topic: topic, store: store, metrics: metrics, logger: logger}
}

func (h *KafkaCandlesHandler) Topic() string { return h.topic }

type barMessage struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Bucket    int64   `json:"bucket"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

func (h *KafkaCandlesHandler) Handle(ctx context.Context, data []byte) error {
	var msg barMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.metrics.RecordError("candle_sink_decode")
		// malformed payloads never become valid; do not retry
		h.logger.Warn("dropping malformed bar message", applogger.Error(err))
		return nil
	}
	if msg.Symbol == "" || msg.Timeframe == "" || msg.Bucket == 0 {
		h.metrics.RecordError("candle_sink_invalid")
		return nil
	}

	c := &models.Candle{
		Symbol:    msg.Symbol,
		Timeframe: msg.Timeframe,
		Bucket:    time.Unix(msg.Bucket, 0).UTC(),
		Open:      msg.Open,
		High:      msg.High,
		Low:       msg.Low,
		Close:     msg.Close,
		Volume:    msg.Volume,
	}
	if err := h.store.Insert(ctx, c); err != nil {
		h.metrics.RecordError("candle_sink_insert")
		return fmt.Errorf("persist bar %s/%s: %w", msg.Symbol, msg.Timeframe, err)
	}
	return nil
}
