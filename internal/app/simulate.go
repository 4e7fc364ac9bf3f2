package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stddevalert/internal/fetcher"
	"stddevalert/internal/market"
)

// Simulate runs the full check over a fixed price list instead of the API.
// Prices are given oldest first and spaced one timeframe apart, ending now.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if len(opts.Prices) == 0 {
		return errors.New("--prices must list at least one price")
	}

	interval, err := fetcher.TimeframeDuration(a.Config.Gemini.Timeframe)
	if err != nil {
		return err
	}

	window, err := staticWindow(opts.Prices, time.Now().UTC().Truncate(interval), interval)
	if err != nil {
		return err
	}

	a.Logger.Warn().Int("samples", len(window)).Msg("simulating check with static prices; the API is not called")
	return a.runCheck(ctx, &staticFetcher{window: window}, opts.Symbol)
}

func staticWindow(prices []string, end time.Time, interval time.Duration) (market.Window, error) {
	window := make(market.Window, 0, len(prices))
	start := end.Add(-time.Duration(len(prices)-1) * interval)
	for i, raw := range prices {
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", raw, err)
		}
		window = append(window, market.PriceSample{Time: start.Add(time.Duration(i) * interval), Price: price})
	}
	return window, nil
}

type staticFetcher struct {
	window market.Window
}

func (s *staticFetcher) FetchWindow(ctx context.Context, symbol string) (market.Window, error) {
	return s.window, nil
}

var _ fetcher.PriceSeriesFetcher = (*staticFetcher)(nil)
