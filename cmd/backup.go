package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cadence/internal/backup"
	"cadence/internal/store"
)

var backupCmd = &cobra.Command{
	Use:   "backup [file]",
	Short: "Export all trackers to a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := "tracker.json"
		if len(args) == 1 {
			out = args[0]
		}

		path, err := store.DefaultPath()
		if err != nil {
			return err
		}
		st, err := store.Open(path)
		if err != nil {
			return err
		}
		defer st.Close()

		records, _, err := st.Load()
		if err != nil {
			return err
		}

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := backup.Export(f, records); err != nil {
			return err
		}
		fmt.Printf("Exported %d trackers to %s\n", len(records), out)
		return nil
	},
}
