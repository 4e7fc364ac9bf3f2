package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stddevalert/internal/market"
)

const tickerPath = "/v2/ticker/%s"

// Ticker reads the hourly "changes" list of the v2 ticker endpoint.
//
// The ticker carries no per-price timestamps, only newest-first ordering, so
// sample times are inferred by stepping back one interval per entry from the
// current interval boundary. The inferred times can be off by up to one
// interval; prefer Candles when exact timestamps matter.
type Ticker struct {
	*client
}

// NewTicker constructs a ticker fetcher.
func NewTicker(opts Options, logger zerolog.Logger) (*Ticker, error) {
	c, err := newClient(opts, logger, "ticker_fetcher")
	if err != nil {
		return nil, err
	}
	return &Ticker{client: c}, nil
}

// FetchWindow returns the ticker's hourly prices with inferred timestamps, oldest first.
func (t *Ticker) FetchWindow(ctx context.Context, symbol string) (market.Window, error) {
	t.logger.Info().Str("symbol", symbol).Msg("requesting ticker data")

	payload, err := t.get(ctx, fmt.Sprintf(tickerPath, symbolPath(symbol)))
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Op: "request ticker", Err: err}
	}

	var res tickerResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, &FetchError{Symbol: symbol, Op: "decode ticker", Err: err}
	}
	if len(res.Changes) == 0 {
		return nil, &FetchError{Symbol: symbol, Op: "decode ticker", Err: ErrEmptyWindow}
	}

	now := t.opts.Now().UTC()
	anchor := now.Truncate(t.interval)
	cutoff := now.Add(-(t.opts.Window + t.interval))

	t.logger.Warn().
		Str("symbol", symbol).
		Int("samples", len(res.Changes)).
		Time("anchor", anchor).
		Dur("interval", t.interval).
		Msg("ticker has no per-price timestamps; inferring them from position")

	window := make(market.Window, 0, len(res.Changes))
	for i, price := range res.Changes {
		ts := anchor.Add(-time.Duration(i) * t.interval)
		if ts.Before(cutoff) {
			break
		}
		window = append(window, market.PriceSample{Time: ts, Price: price})
	}

	window = window.Sorted()

	t.logger.Info().
		Str("symbol", symbol).
		Time("opened_at", now.Add(-t.opts.Window)).
		Str("open", res.Open.String()).
		Str("close", res.Close.String()).
		Msg("ticker window collected")

	return window, nil
}

type tickerResponse struct {
	Symbol  string            `json:"symbol"`
	Open    decimal.Decimal   `json:"open"`
	High    decimal.Decimal   `json:"high"`
	Low     decimal.Decimal   `json:"low"`
	Close   decimal.Decimal   `json:"close"`
	Changes []decimal.Decimal `json:"changes"`
	Bid     decimal.Decimal   `json:"bid"`
	Ask     decimal.Decimal   `json:"ask"`
}

var _ PriceSeriesFetcher = (*Ticker)(nil)
