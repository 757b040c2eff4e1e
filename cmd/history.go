package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/parse"
	"cadence/internal/tracker"
)

var (
	historyDelete  int
	historyReplace int
	historyWith    string
)

var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show or edit a tracker's completion history",
	Long: `Examples:
	cadence history 3                              # list completions with indexes
	cadence history 3 --delete 0                   # remove the oldest completion
	cadence history 3 --replace 2 --with "today, 1h"`,
	Args: cobra.ExactArgs(1),
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

		switch {
		case cmd.Flags().Changed("delete"):
			if err := m.DeleteCompletion(id, historyDelete); err != nil {
				return err
			}
			fmt.Printf("Deleted completion %d\n", historyDelete)
		case cmd.Flags().Changed("replace"):
			if historyWith == "" {
				return fmt.Errorf("--replace requires --with \"datetime[, duration]\"")
			}
			at, dev, err := parse.ParseCompletion(historyWith, cfg.Location())
			if err != nil {
				return err
			}
			c := tracker.Completion{At: at, Deviation: dev}
			if err := m.ReplaceCompletion(id, historyReplace, c); err != nil {
				return err
			}
			fmt.Printf("Replaced completion %d with %s\n", historyReplace, parse.FormatStamp(at))
		}

		t, ok := m.Get(id)
		if !ok {
			return fmt.Errorf("%w: id %d", tracker.ErrNotFound, id)
		}
		fmt.Printf("%s (%d completions)\n", t.Name, len(t.History))
		for i, c := range t.History {
			fmt.Printf("  %2d. %s %s\n", i, parse.FormatStamp(c.At), parse.FormatDuration(c.Deviation))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyDelete, "delete", 0, "Delete the completion at this index")
	historyCmd.Flags().IntVar(&historyReplace, "replace", 0, "Replace the completion at this index")
	historyCmd.Flags().StringVar(&historyWith, "with", "", "Replacement completion: \"datetime[, duration]\"")
}
