package indicator

import (
	"errors"
	"fmt"

	"TradeDeck/internal/domain/models"
)

// Compute evaluates an indicator config over candles and returns the series
// aligned to candle buckets. The first period-1 buckets produce no point.
func Compute(cfg *models.IndicatorConfig, candles []models.Candle) ([]models.IndicatorPoint, error) {
	if cfg == nil {
		return nil, errors.New("indicator config is nil")
	}
	switch cfg.Kind {
	case "sma":
		return SMASeries(candles, cfg.Period)
	case "ema":
		return EMASeries(candles, cfg.Period)
	case "rsi":
		return RSISeries(candles, cfg.Period)
	default:
		return nil, fmt.Errorf("unknown indicator kind: %s", cfg.Kind)
	}
}

// SMASeries computes the simple moving average of closes.
func SMASeries(candles []models.Candle, period int) ([]models.IndicatorPoint, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(candles) < period {
		return nil, errors.New("not enough data for SMA calculation")
	}

	out := make([]models.IndicatorPoint, 0, len(candles)-period+1)
	sum := 0.0
	for i, c := range candles {
		sum += c.Close
		if i >= period {
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out = append(out, models.IndicatorPoint{Bucket: c.Bucket, Value: sum / float64(period)})
		}
	}
	return out, nil
}

// EMASeries computes the exponential moving average of closes, seeded with
// the SMA of the first period values.
func EMASeries(candles []models.Candle, period int) ([]models.IndicatorPoint, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(candles) < period {
		return nil, errors.New("not enough data for EMA calculation")
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += candles[i].Close
	}
	ema := seed / float64(period)
	k := 2.0 / float64(period+1)

	out := make([]models.IndicatorPoint, 0, len(candles)-period+1)
	out = append(out, models.IndicatorPoint{Bucket: candles[period-1].Bucket, Value: ema})
	for i := period; i < len(candles); i++ {
		ema = (candles[i].Close-ema)*k + ema
		out = append(out, models.IndicatorPoint{Bucket: candles[i].Bucket, Value: ema})
	}
	return out, nil
}

// RSISeries computes the Wilder-smoothed RSI over closes.
// Requires at least period+1 candles.
func RSISeries(candles []models.Candle, period int) ([]models.IndicatorPoint, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(candles) < period+1 {
		return nil, errors.New("not enough data for RSI calculation")
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change // make positive
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]models.IndicatorPoint, 0, len(candles)-period)
	out = append(out, models.IndicatorPoint{Bucket: candles[period].Bucket, Value: rsiValue(avgGain, avgLoss)})

	for i := period + 1; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, models.IndicatorPoint{Bucket: candles[i].Bucket, Value: rsiValue(avgGain, avgLoss)})
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
