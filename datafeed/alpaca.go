package datafeed

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/rustyeddy/stratlab/market"
)

// AlpacaSource fetches daily bars from the Alpaca market data API.
type AlpacaSource struct {
	client *marketdata.Client
}

// NewAlpacaSource builds a source from API credentials. An empty baseURL uses
// the Alpaca default.
func NewAlpacaSource(apiKey, apiSecret, baseURL string) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return &AlpacaSource{client: marketdata.NewClient(opts)}
}

func (a *AlpacaSource) Fetch(ctx context.Context, symbol string, start, end time.Time) (market.History, error) {
	// The IEX feed keeps free-tier keys working.
	bars, err := a.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      "iex",
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, ErrNoData)
	}

	h := make(market.History, 0, len(bars))
	for _, b := range bars {
		h = append(h, market.Bar{
			Date:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		})
	}
	return normalize(h)
}
