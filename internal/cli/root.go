package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stddevalert/internal/app"
	"stddevalert/internal/config"
	"stddevalert/internal/deviation"
	"stddevalert/internal/logging"
	"stddevalert/internal/output"
)

var (
	cfgFile   string
	logLevel  string
	chain     string
	timezone  string
	source    string
	dryRun    bool
	threshold float64
	outFormat string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:   "stddevalert",
	Short: "Alert when the 24h standard deviation of hourly prices exceeds a threshold",
	Long: `Fetches hourly prices for a trading pair from the Gemini REST API, computes the
sample standard deviation over the trailing 24 hours and prints one alert
record on stdout when it exceeds --threshold. No stdout output means no alert.
Diagnostics are written to stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		applyOverrides(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := logging.NewLogger(cfg.Logging)
		appHandle = app.NewApp(cfg, logger)
		appHandle.Stdout = cmd.OutOrStdout()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol, err := requireChain()
		if err != nil {
			return err
		}
		return getApp().Check(cmd.Context(), symbol)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: "+strings.Join(logging.Levels, ", ")+" (default INFO)")
	rootCmd.PersistentFlags().StringVarP(&chain, "chain", "c", "", `Trading pair to check (example: "BTCUSD", "ETHUSD", "BTCETH")`)
	rootCmd.PersistentFlags().StringVarP(&timezone, "timezone", "z", "", "IANA timezone for output timestamps (default UTC)")
	rootCmd.PersistentFlags().StringVar(&source, "source", "", "Price history source: candles or ticker (default candles)")

	addCheckFlags(rootCmd)

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(versionCmd)
}

// addCheckFlags registers the flags shared by commands that run the full check.
func addCheckFlags(cmd *cobra.Command) {
	formats := make([]string, len(output.Formats))
	for i, f := range output.Formats {
		formats[i] = string(f)
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Run the check but never print the alert event")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", deviation.DefaultThreshold, "Standard deviation that must be exceeded to trigger an alert")
	cmd.Flags().StringVarP(&outFormat, "output-format", "f", string(output.FormatJSON), "Output format: "+strings.Join(formats, ", "))
}

// applyOverrides copies explicitly set flags over file and environment values.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("timezone") {
		cfg.Alert.Timezone = timezone
	}
	if flags.Changed("source") {
		cfg.Gemini.Source = source
	}
	if flags.Changed("dry-run") {
		cfg.Alert.DryRun = dryRun
	}
	if flags.Changed("threshold") {
		cfg.Alert.Threshold = threshold
	}
	if flags.Changed("output-format") {
		cfg.Alert.OutputFormat = outFormat
	}
}

func requireChain() (string, error) {
	symbol := strings.TrimSpace(chain)
	if symbol == "" {
		return "", errors.New(`required flag "chain" not set`)
	}
	return symbol, nil
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
