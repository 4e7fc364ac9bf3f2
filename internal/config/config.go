package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"stddevalert/internal/fetcher"
	"stddevalert/internal/logging"
	"stddevalert/internal/output"
)

// Config materialises application configuration.
type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Logging logging.Config `mapstructure:"logging"`
	Gemini  GeminiConfig   `mapstructure:"gemini"`
	Alert   AlertConfig    `mapstructure:"alert"`
	Chart   ChartConfig    `mapstructure:"chart"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name string `mapstructure:"name"`
}

// GeminiConfig captures Gemini REST API connectivity.
type GeminiConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Source         string        `mapstructure:"source"`
	Timeframe      string        `mapstructure:"timeframe"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// AlertConfig defines the deviation check and its output.
type AlertConfig struct {
	Threshold    float64       `mapstructure:"threshold"`
	Window       time.Duration `mapstructure:"window"`
	OutputFormat string        `mapstructure:"output_format"`
	Timezone     string        `mapstructure:"timezone"`
	DryRun       bool          `mapstructure:"dry_run"`
}

// ChartConfig sizes the PNG rendered by the chart command.
type ChartConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// Load builds configuration from .env, file, environment, and defaults.
// Callers validate once flag overrides have been applied.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("STDDEVALERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stddevalert")

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 7)

	v.SetDefault("gemini.base_url", "https://api.sandbox.gemini.com")
	v.SetDefault("gemini.source", fetcher.SourceCandles)
	v.SetDefault("gemini.timeframe", "1hr")
	v.SetDefault("gemini.request_timeout", "10s")
	v.SetDefault("gemini.user_agent", "stddevalert/1.0")

	v.SetDefault("alert.threshold", 1.0)
	v.SetDefault("alert.window", "24h")
	v.SetDefault("alert.output_format", string(output.FormatJSON))
	v.SetDefault("alert.timezone", "UTC")
	v.SetDefault("alert.dry_run", false)

	v.SetDefault("chart.width", 1280)
	v.SetDefault("chart.height", 720)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
// A negative or infinite threshold is valid; NaN is not.
func (c *Config) Validate() error {
	if math.IsNaN(c.Alert.Threshold) {
		return errors.New("alert.threshold must be a number")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if _, err := output.ParseFormat(c.Alert.OutputFormat); err != nil {
		return fmt.Errorf("alert.output_format: %w", err)
	}
	if _, err := time.LoadLocation(c.Alert.Timezone); err != nil {
		return fmt.Errorf("alert.timezone: %w", err)
	}
	if c.Alert.Window <= 0 {
		return fmt.Errorf("alert.window must be greater than zero")
	}
	switch strings.ToLower(c.Gemini.Source) {
	case fetcher.SourceCandles, fetcher.SourceTicker:
	default:
		return fmt.Errorf("gemini.source must be %q or %q", fetcher.SourceCandles, fetcher.SourceTicker)
	}
	if _, err := fetcher.TimeframeDuration(c.Gemini.Timeframe); err != nil {
		return fmt.Errorf("gemini.timeframe: %w", err)
	}
	if c.Gemini.RequestTimeout <= 0 {
		return fmt.Errorf("gemini.request_timeout must be greater than zero")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be greater than zero")
	}
	return nil
}

// Location resolves the configured output timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Alert.Timezone)
}
