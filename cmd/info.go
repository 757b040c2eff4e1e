package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/utils"
)

var infoNoColor bool

var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show a tracker's history and interval statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid tracker id %q", args[0])
		}

		m, cfg, err := openManager()
		if err != nil {
			return err
		}
		defer m.Close()

		s, err := m.Stats(id)
		if err != nil {
			return err
		}
		t, _ := m.Get(id)

		renderConfig := utils.DefaultRenderConfig()
		renderConfig.Color = !infoNoColor
		renderConfig.Location = cfg.Location()

		fmt.Print(utils.NewRenderer(renderConfig).RenderTrackerInfo(t, s))
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoNoColor, "no-color", false, "Disable colored output")
}
