package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stddevalert/internal/market"
)

const candlesPath = "/v2/candles/%s/%s"

// Candle field positions in the Gemini v2 candles payload.
const (
	candleTime = iota
	candleOpen
	candleHigh
	candleLow
	candleClose
	candleVolume
)

// Candles fetches hourly candles and uses each close as the sample price.
type Candles struct {
	*client
}

// NewCandles constructs a candles fetcher.
func NewCandles(opts Options, logger zerolog.Logger) (*Candles, error) {
	c, err := newClient(opts, logger, "candles_fetcher")
	if err != nil {
		return nil, err
	}
	return &Candles{client: c}, nil
}

// FetchWindow returns the candles inside the trailing window, oldest first.
func (c *Candles) FetchWindow(ctx context.Context, symbol string) (market.Window, error) {
	c.logger.Info().Str("symbol", symbol).Str("timeframe", c.opts.Timeframe).Msg("requesting candle data")

	payload, err := c.get(ctx, fmt.Sprintf(candlesPath, symbolPath(symbol), c.opts.Timeframe))
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Op: "request candles", Err: err}
	}

	rows, err := decodeCandles(payload)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Op: "decode candles", Err: err}
	}

	// One extra interval so the candle opened exactly one window ago is included.
	cutoff := c.opts.Now().UTC().Add(-(c.opts.Window + c.interval))

	window := make(market.Window, 0, int(c.opts.Window/c.interval)+1)
	for i, row := range rows {
		sample, err := parseCandle(row)
		if err != nil {
			return nil, &FetchError{Symbol: symbol, Op: "decode candles", Err: fmt.Errorf("row %d: %w", i, err)}
		}
		if sample.Time.Before(cutoff) {
			continue
		}
		window = append(window, sample)
	}

	if len(window) == 0 {
		return nil, &FetchError{Symbol: symbol, Op: "filter candles", Err: ErrEmptyWindow}
	}

	if !window.IsChronological() {
		c.logger.Debug().Str("symbol", symbol).Msg("candles returned newest first; sorting")
	}
	window = window.Sorted()

	c.logger.Info().
		Str("symbol", symbol).
		Int("samples", len(window)).
		Time("from", window.First().Time).
		Time("to", window.Last().Time).
		Msg("collected candle window")

	return window, nil
}

func decodeCandles(payload []byte) ([][]json.Number, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var rows [][]json.Number
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func parseCandle(row []json.Number) (market.PriceSample, error) {
	if len(row) <= candleClose {
		return market.PriceSample{}, fmt.Errorf("expected at least %d fields, got %d", candleClose+1, len(row))
	}

	ms, err := row[candleTime].Int64()
	if err != nil {
		return market.PriceSample{}, fmt.Errorf("parse timestamp: %w", err)
	}

	price, err := decimal.NewFromString(row[candleClose].String())
	if err != nil {
		return market.PriceSample{}, fmt.Errorf("parse close: %w", err)
	}

	return market.PriceSample{Time: time.UnixMilli(ms).UTC(), Price: price}, nil
}

var _ PriceSeriesFetcher = (*Candles)(nil)
