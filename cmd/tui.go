package cmd

import (
	"github.com/spf13/cobra"

	"cadence/internal/ui"
)

// tuiCmd launches the Bubble Tea TUI.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive tracker view",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, cfg, err := openManager()
		if err != nil {
			return err
		}
		defer m.Close()
		return ui.Run(m, cfg)
	},
}
