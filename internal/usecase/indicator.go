package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
	"TradeDeck/internal/service/indicator"
)

// IndicatorUseCase manages indicator display configs and evaluates them
// over stored candles.
type IndicatorUseCase struct {
	store   drepo.IndicatorStore
	candles drepo.CandleStore
}

func NewIndicatorUseCase(store drepo.IndicatorStore, candles drepo.CandleStore) *IndicatorUseCase {
	return &IndicatorUseCase{store: store, candles: candles}
}

// Upsert saves an indicator config. A missing ID means create; the
// generated ID comes back on the returned config.
func (uc *IndicatorUseCase) Upsert(ctx context.Context, cfg *models.IndicatorConfig) (*models.IndicatorConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("indicator config required")
	}
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("period must be positive")
	}
	switch cfg.Kind {
	case "sma", "ema", "rsi":
	default:
		return nil, fmt.Errorf("unknown indicator kind: %s", cfg.Kind)
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("%s(%d)", cfg.Kind, cfg.Period)
	}
	if cfg.LineWidth <= 0 {
		cfg.LineWidth = 1
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := uc.store.Put(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save indicator: %w", err)
	}
	return cfg, nil
}

func (uc *IndicatorUseCase) Get(ctx context.Context, id string) (*models.IndicatorConfig, error) {
	return uc.store.Get(ctx, id)
}

func (uc *IndicatorUseCase) List(ctx context.Context) ([]models.IndicatorConfig, error) {
	return uc.store.List(ctx)
}

func (uc *IndicatorUseCase) Delete(ctx context.Context, id string) error {
	return uc.store.Delete(ctx, id)
}

// SeriesResult carries an evaluated indicator alongside its config so the
// chart can style the line without a second lookup.
type SeriesResult struct {
	Config *models.IndicatorConfig `json:"config"`
	Points []models.IndicatorPoint `json:"points"`
}

// Series evaluates the indicator over the latest bars of the given
// symbol and timeframe. Bars is the chart window; the lookback needed by
// the indicator is fetched on top of it.
func (uc *IndicatorUseCase) Series(ctx context.Context, id, symbol string, tf drepo.Timeframe, bars int) (*SeriesResult, error) {
	cfg, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("indicator %q not found", id)
	}
	if bars <= 0 {
		bars = 200
	}

	candles, err := uc.candles.GetLatestNCandles(ctx, symbol, bars+cfg.Period, tf)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}

	points, err := indicator.Compute(cfg, candles)
	if err != nil {
		return nil, err
	}
	if len(points) > bars {
		points = points[len(points)-bars:]
	}
	return &SeriesResult{Config: cfg, Points: points}, nil
}
