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

// FinnhubREST is the secondary quote provider used when the primary is
// rate limited or down.
type FinnhubREST struct {
	baseURL string
	token   string
	client  *xhttp.Client
}

func NewFinnhubREST(baseURL, token string, timeout time.Duration) *FinnhubREST {
	return &FinnhubREST{
		baseURL: baseURL,
		token:   token,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (f *FinnhubREST) Name() string { return "finnhub" }

type fhQuoteResp struct {
	Current   float64 `json:"c"`
	PrevClose float64 `json:"pc"`
	T         int64   `json:"t"` // unix seconds
}

type fhCandleResp struct {
	Open   []float64 `json:"o"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Close  []float64 `json:"c"`
	Volume []float64 `json:"v"`
	T      []int64   `json:"t"`
	Status string    `json:"s"`
}

func (f *FinnhubREST) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	url := fmt.Sprintf("%s/quote?symbol=%s&token=%s", f.baseURL, symbol, f.token)
	var resp fhQuoteResp
	if err := f.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	if resp.Current == 0 && resp.T == 0 {
		return nil, fmt.Errorf("finnhub quote %s: empty response", symbol)
	}

	q := models.Quote{
		Symbol:    symbol,
		PrevClose: resp.PrevClose,
		Source:    f.Name(),
	}
	q = q.WithLast(resp.Current, time.Unix(resp.T, 0).UTC())
	return &q, nil
}

func (f *FinnhubREST) FetchDailyCandles(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	url := fmt.Sprintf("%s/stock/candle?symbol=%s&resolution=D&from=%d&to=%d&token=%s",
		f.baseURL, symbol, from.Unix(), to.Unix(), f.token)

	var resp fhCandleResp
	if err := f.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("finnhub candles %s: %w", symbol, err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("finnhub candles %s: status %s", symbol, resp.Status)
	}

	// the response carries parallel arrays; a truncated one must not panic
	n := len(resp.T)
	for _, series := range [][]float64{resp.Open, resp.High, resp.Low, resp.Close, resp.Volume} {
		if len(series) < n {
			n = len(series)
		}
	}
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Candle{
			Symbol:    symbol,
			Timeframe: string(drepo.TF1d),
			Bucket:    time.Unix(resp.T[i], 0).UTC(),
			Open:      resp.Open[i],
			High:      resp.High[i],
			Low:       resp.Low[i],
			Close:     resp.Close[i],
			Volume:    resp.Volume[i],
		})
	}
	return out, nil
}

func (f *FinnhubREST) getJSON(ctx context.Context, url string, dest interface{}) error {
	resp, err := f.client.SendRequest(ctx, &xhttp.RequestOptions{
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

var _ drepo.QuoteProvider = (*FinnhubREST)(nil)
