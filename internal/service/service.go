package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stddevalert/internal/deviation"
	"stddevalert/internal/fetcher"
	"stddevalert/internal/market"
	"stddevalert/internal/output"
)

// Options configure a single deviation check.
type Options struct {
	Symbol    string
	Threshold float64
	Format    output.Format
	Location  *time.Location
	DryRun    bool
	LogLevel  string
}

// Outcome summarises a completed check.
type Outcome struct {
	Record    output.Record
	Triggered bool
	Emitted   bool
}

// Service runs fetch, compute, decide, format and emit for one symbol.
type Service struct {
	fetcher fetcher.PriceSeriesFetcher
	emitter *output.Emitter
	logger  zerolog.Logger
	now     func() time.Time
}

// New constructs the check service.
func New(f fetcher.PriceSeriesFetcher, emitter *output.Emitter, logger zerolog.Logger) *Service {
	return &Service{
		fetcher: f,
		emitter: emitter,
		logger:  logger.With().Str("component", "service").Logger(),
		now:     time.Now,
	}
}

// Inspect fetches the window and computes its statistics without deciding.
func (s *Service) Inspect(ctx context.Context, symbol string) (market.Window, deviation.Result, error) {
	window, err := s.fetcher.FetchWindow(ctx, symbol)
	if err != nil {
		s.logFailure(err, symbol, "fetch")
		return nil, deviation.Result{}, err
	}

	s.logger.Debug().Str("symbol", symbol).Strs("prices", priceStrings(window)).Msg("prices over trailing window")

	result, err := deviation.Compute(window)
	if err != nil {
		s.logFailure(err, symbol, "compute")
		return window, deviation.Result{}, fmt.Errorf("compute deviation for %s: %w", symbol, err)
	}
	return window, result, nil
}

// Check performs one full run. Nothing is written to the primary stream
// unless the deviation strictly exceeds the threshold and DryRun is off.
func (s *Service) Check(ctx context.Context, opts Options) (Outcome, error) {
	if opts.DryRun {
		s.logger.Info().Msg("DRY_RUN - alert events will not be triggered")
	}

	_, result, err := s.Inspect(ctx, opts.Symbol)
	if err != nil {
		return Outcome{}, err
	}

	triggered := deviation.Decide(result, opts.Threshold)
	record := output.NewRecord(s.now(), opts.Location, opts.LogLevel, opts.Symbol, triggered, result)
	outcome := Outcome{Record: record, Triggered: triggered}

	event := s.logger.Info().
		Str("symbol", record.TradingPair).
		Int("samples", result.Samples).
		Str("last_price", result.LastPrice.String()).
		Str("average_price", result.AveragePrice.String()).
		Str("stddev", result.StdDev.String()).
		Str("change", result.Change.String()).
		Float64("threshold", opts.Threshold).
		Bool("triggered", triggered)
	if !triggered {
		event.Msg("standard deviation within threshold; no alert")
		return outcome, nil
	}
	event.Msg("standard deviation above threshold; alert triggered")

	formatted, err := output.Render(record, opts.Format)
	if err != nil {
		s.logFailure(err, record.TradingPair, "format")
		return outcome, err
	}

	emitted, err := s.emitter.Emit(formatted, opts.DryRun)
	if err != nil {
		s.logFailure(err, record.TradingPair, "emit")
		return outcome, err
	}
	outcome.Emitted = emitted
	return outcome, nil
}

func (s *Service) logFailure(err error, symbol, stage string) {
	event := s.logger.Error().Err(err).Str("symbol", symbol).Str("stage", stage)

	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		event = event.Str("op", fetchErr.Op)
	}
	event.Msg("deviation check failed")
}

func priceStrings(window market.Window) []string {
	out := make([]string, len(window))
	for i, p := range window.Prices() {
		out[i] = p.String()
	}
	return out
}
