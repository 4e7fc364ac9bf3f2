package cli

import (
	"github.com/spf13/cobra"

	"stddevalert/internal/app"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current price window and its statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol, err := requireChain()
		if err != nil {
			return err
		}
		return getApp().Show(cmd.Context(), app.ShowOptions{Symbol: symbol})
	},
}
