package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/utils"
)

var (
	listPage   int
	listFormat string
	noColor    bool
	oldFirst   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List trackers sorted by next expected occurrence",
	Long: `Examples:
	cadence list                       # first page, soonest next date first
	cadence list --page 2              # second page
	cadence list --old-first           # untracked and stale trackers first
	cadence list --format json         # machine readable output`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, cfg, err := openManager()
		if err != nil {
			return err
		}
		defer m.Close()

		renderConfig := utils.DefaultRenderConfig()
		if noColor {
			renderConfig.Color = false
		}
		if listFormat != "" {
			renderConfig.Format = utils.OutputFormat(listFormat)
		}
		renderConfig.Location = cfg.Location()

		if oldFirst && m.NextFirst() {
			m.ToggleSort()
		}

		if listPage < 1 {
			listPage = 1
		}
		rows := m.ListPage(listPage - 1)

		list := &utils.TrackerList{
			Rows:       make([]utils.TrackerRow, 0, len(rows)),
			Total:      m.Len(),
			Page:       m.ActivePage(),
			TotalPages: m.PageCount(),
		}
		for _, row := range rows {
			s := row.Tracker.Stats(m.SpreadMultiplier())
			list.Rows = append(list.Rows, utils.NewTrackerRow(row.Tag, row.Tracker, s))
		}

		renderer := utils.NewRenderer(renderConfig)
		output, err := renderer.RenderTrackerList(list)
		if err != nil {
			return err
		}
		fmt.Print(output)
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number to show")
	listCmd.Flags().StringVar(&listFormat, "format", "default", "Output format: default, table, json, quiet")
	listCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	listCmd.Flags().BoolVar(&oldFirst, "old-first", false, "Reverse the sort: neglected trackers first")
}
