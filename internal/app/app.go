package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stddevalert/internal/config"
	"stddevalert/internal/fetcher"
	"stddevalert/internal/output"
	"stddevalert/internal/service"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Stdout is the primary output stream; alert records and reports go here.
	Stdout io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	runLogger := logger.With().Str("run_id", uuid.NewString()).Logger()
	return &App{
		Config: cfg,
		Logger: runLogger.With().Str("component", "app").Logger(),
		Stdout: os.Stdout,
	}
}

func (a *App) newFetcher() (fetcher.PriceSeriesFetcher, error) {
	return fetcher.New(a.Config.Gemini.Source, fetcher.Options{
		BaseURL:   a.Config.Gemini.BaseURL,
		Timeframe: a.Config.Gemini.Timeframe,
		Window:    a.Config.Alert.Window,
		Timeout:   a.Config.Gemini.RequestTimeout,
		UserAgent: a.Config.Gemini.UserAgent,
	}, a.Logger)
}

func (a *App) newService(f fetcher.PriceSeriesFetcher) *service.Service {
	return service.New(f, output.NewEmitter(a.Stdout, a.Logger), a.Logger)
}

func (a *App) checkOptions(symbol string) (service.Options, error) {
	format, err := output.ParseFormat(a.Config.Alert.OutputFormat)
	if err != nil {
		return service.Options{}, err
	}
	loc, err := a.Config.Location()
	if err != nil {
		return service.Options{}, err
	}
	return service.Options{
		Symbol:    symbol,
		Threshold: a.Config.Alert.Threshold,
		Format:    format,
		Location:  loc,
		DryRun:    a.Config.Alert.DryRun,
		LogLevel:  a.Config.Logging.Level,
	}, nil
}

// Check runs one deviation check against the live API.
func (a *App) Check(ctx context.Context, symbol string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	f, err := a.newFetcher()
	if err != nil {
		return err
	}
	return a.runCheck(ctx, f, symbol)
}

func (a *App) runCheck(ctx context.Context, f fetcher.PriceSeriesFetcher, symbol string) error {
	opts, err := a.checkOptions(symbol)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Str("symbol", symbol).
		Str("source", a.Config.Gemini.Source).
		Str("format", string(opts.Format)).
		Msg("starting deviation check")

	outcome, err := a.newService(f).Check(ctx, opts)
	if err != nil {
		return err
	}

	a.Logger.Debug().Bool("triggered", outcome.Triggered).Bool("emitted", outcome.Emitted).Msg("deviation check finished")
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Symbol string
}

// ChartOptions hold parameters for exporting the current window.
type ChartOptions struct {
	Symbol  string
	PNGPath string
	CSVPath string
}

// SimulateOptions configure an offline run over fixed prices.
type SimulateOptions struct {
	Symbol string
	Prices []string
}
