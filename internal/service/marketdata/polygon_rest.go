package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
	xhttp "TradeDeck/pkg/http"
)

// PolygonREST fetches quotes and daily aggregates from the Polygon REST API.
type PolygonREST struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

func NewPolygonREST(baseURL, apiKey string, timeout time.Duration) *PolygonREST {
	return &PolygonREST{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (p *PolygonREST) Name() string { return "polygon" }

type pgLastTradeResp struct {
	Results struct {
		P float64 `json:"p"`
		T int64   `json:"t"` // ns
	} `json:"results"`
	Status string `json:"status"`
}

type pgAggsResp struct {
	Results []struct {
		T int64   `json:"t"` // ms
		O float64 `json:"o"`
		H float64 `json:"h"`
		L float64 `json:"l"`
		C float64 `json:"c"`
		V float64 `json:"v"`
	} `json:"results"`
	Status string `json:"status"`
}

// FetchQuote combines last trade and previous close into a Quote.
func (p *PolygonREST) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var last pgLastTradeResp
	url := fmt.Sprintf("%s/v2/last/trade/%s?apiKey=%s", p.baseURL, symbol, p.apiKey)
	if err := p.getJSON(ctx, url, &last); err != nil {
		return nil, fmt.Errorf("polygon last trade %s: %w", symbol, err)
	}

	var prev pgAggsResp
	url = fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?apiKey=%s", p.baseURL, symbol, p.apiKey)
	if err := p.getJSON(ctx, url, &prev); err != nil {
		return nil, fmt.Errorf("polygon prev close %s: %w", symbol, err)
	}

	q := models.Quote{
		Symbol:    symbol,
		Source:    p.Name(),
		UpdatedAt: time.Unix(0, last.Results.T).UTC(),
	}
	if len(prev.Results) > 0 {
		q.PrevClose = prev.Results[0].C
	}
	q = q.WithLast(last.Results.P, q.UpdatedAt)
	return &q, nil
}

// FetchDailyCandles returns up to `days` daily bars ending today.
func (p *PolygonREST) FetchDailyCandles(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&apiKey=%s",
		p.baseURL, symbol, from.Format("2006-01-02"), to.Format("2006-01-02"), p.apiKey)

	var resp pgAggsResp
	if err := p.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("polygon daily aggs %s: %w", symbol, err)
	}

	out := make([]models.Candle, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, models.Candle{
			Symbol:    symbol,
			Timeframe: string(drepo.TF1d),
			Bucket:    time.UnixMilli(r.T).UTC(),
			Open:      r.O,
			High:      r.H,
			Low:       r.L,
			Close:     r.C,
			Volume:    r.V,
		})
	}
	return out, nil
}

// getJSON performs a GET and maps 429 to ErrRateLimited so the fallback
// chain can react to it.
func (p *PolygonREST) getJSON(ctx context.Context, url string, dest interface{}) error {
	resp, err := p.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

var _ drepo.QuoteProvider = (*PolygonREST)(nil)
