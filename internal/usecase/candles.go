package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeDeck/internal/domain/models"
	domrepo "TradeDeck/internal/domain/repository"
)

// CandlesUseCase provides business logic for retrieving candles.
type CandlesUseCase struct {
	store   domrepo.CandleStore
	builder *CandleBuilder
}

func NewCandlesUseCase(store domrepo.CandleStore, builder *CandleBuilder) *CandlesUseCase {
	return &CandlesUseCase{store: store, builder: builder}
}

type GetCandlesParams struct {
	Symbol      string
	From        time.Time
	To          time.Time
	Timeframe   domrepo.Timeframe
	Limit       int
	IncludeLive bool
}

type GetCandlesResult struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Count     int             `json:"count"`
	Candles   []models.Candle `json:"candles"`
	Live      *models.Candle  `json:"live,omitempty"`
}

func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	candles, err := uc.store.GetCandles(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) > p.Limit {
		candles = candles[:p.Limit]
	}

	res := &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(candles),
		Candles:   candles,
	}

	// attach the currently forming bar so charts can draw the live candle
	if p.IncludeLive && uc.builder != nil {
		if live, ok := uc.builder.OpenBar(p.Symbol, p.Timeframe); ok {
			res.Live = &live
		}
	}
	return res, nil
}
