package cli

import (
	"github.com/spf13/cobra"

	"stddevalert/internal/app"
)

var (
	chartPNGPath string
	chartCSVPath string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Export the current price window as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol, err := requireChain()
		if err != nil {
			return err
		}
		return getApp().Chart(cmd.Context(), app.ChartOptions{
			Symbol:  symbol,
			PNGPath: chartPNGPath,
			CSVPath: chartCSVPath,
		})
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartPNGPath, "png", "", "Path to write PNG chart")
	chartCmd.Flags().StringVar(&chartCSVPath, "csv", "", "Path to write CSV data")
}
