package cli

import (
	"github.com/spf13/cobra"

	"stddevalert/internal/app"
)

var simulatePrices []string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the check over a fixed price list instead of the API",
	Example: `  stddevalert simulate -c BTCUSD --prices 100,102,98,101
  stddevalert simulate -c BTCUSD --prices 100,102,98,101 -t 2 -f prometheus`,
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol, err := requireChain()
		if err != nil {
			return err
		}
		return getApp().Simulate(cmd.Context(), app.SimulateOptions{
			Symbol: symbol,
			Prices: simulatePrices,
		})
	},
}

func init() {
	simulateCmd.Flags().StringSliceVar(&simulatePrices, "prices", nil, "Comma separated prices, oldest first, one per timeframe")
	addCheckFlags(simulateCmd)
}
