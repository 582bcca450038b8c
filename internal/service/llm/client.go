package llm

import (
	"context"
	"fmt"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
	xhttp "TradeDeck/pkg/http"
)

// Client calls the external LLM strategy endpoint that produces trade
// plans. The model output is taken wholesale; the caller decides what to
// do with plans that fail the sanity check.
type Client struct {
	baseURL string
	client  *xhttp.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type planRequest struct {
	Symbol  string          `json:"symbol"`
	Quote   *models.Quote   `json:"quote,omitempty"`
	Candles []models.Candle `json:"candles,omitempty"`
}

type planResponse struct {
	Action     string  `json:"action"`
	Entry      float64 `json:"entry"`
	Stop       float64 `json:"stop"`
	Target     float64 `json:"target"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Generate posts recent market context and returns the model's plan.
func (c *Client) Generate(ctx context.Context, symbol string, quote *models.Quote, candles []models.Candle) (*models.TradePlan, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("strategy endpoint not configured")
	}

	var resp planResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/v1/plan",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: planRequest{Symbol: symbol, Quote: quote, Candles: candles},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("strategy plan %s: %w", symbol, err)
	}

	plan := &models.TradePlan{
		Symbol:      symbol,
		Action:      resp.Action,
		Entry:       resp.Entry,
		Stop:        resp.Stop,
		Target:      resp.Target,
		Confidence:  resp.Confidence,
		Rationale:   resp.Rationale,
		GeneratedAt: time.Now().UTC(),
	}
	plan.SanityOK = plan.SanityCheck()
	return plan, nil
}

var _ drepo.PlanGenerator = (*Client)(nil)
