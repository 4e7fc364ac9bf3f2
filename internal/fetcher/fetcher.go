package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stddevalert/internal/market"
)

// Supported upstream interpretations of the Gemini price history.
const (
	SourceCandles = "candles"
	SourceTicker  = "ticker"
)

// ErrEmptyWindow is wrapped into a FetchError when no usable samples were returned.
var ErrEmptyWindow = errors.New("no price samples returned")

// PriceSeriesFetcher retrieves the trailing price window for a trading pair.
type PriceSeriesFetcher interface {
	FetchWindow(ctx context.Context, symbol string) (market.Window, error)
}

// FetchError describes any failure to obtain a usable price window.
type FetchError struct {
	Symbol string
	Op     string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.Symbol, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options parameterise the Gemini fetchers.
type Options struct {
	BaseURL   string
	Timeframe string
	Window    time.Duration
	Timeout   time.Duration
	UserAgent string
	// Now is overridable for tests.
	Now       func() time.Time
}

var timeframes = map[string]time.Duration{
	"1m":   time.Minute,
	"5m":   5 * time.Minute,
	"15m":  15 * time.Minute,
	"30m":  30 * time.Minute,
	"1hr":  time.Hour,
	"6hr":  6 * time.Hour,
	"1day": 24 * time.Hour,
}

// TimeframeDuration maps a Gemini candle timeframe to its interval.
func TimeframeDuration(tf string) (time.Duration, error) {
	d, ok := timeframes[strings.ToLower(tf)]
	if !ok {
		return 0, fmt.Errorf("unsupported timeframe %q", tf)
	}
	return d, nil
}

// New builds the fetcher for the requested source.
func New(source string, opts Options, logger zerolog.Logger) (PriceSeriesFetcher, error) {
	switch strings.ToLower(source) {
	case "", SourceCandles:
		return NewCandles(opts, logger)
	case SourceTicker:
		return NewTicker(opts, logger)
	default:
		return nil, fmt.Errorf("unsupported price source %q", source)
	}
}
