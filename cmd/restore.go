package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cadence/internal/backup"
	"cadence/internal/store"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Replace all trackers with the contents of a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		records, nextID, err := backup.Import(f)
		if err != nil {
			return err
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

		if err := st.Commit(records, nextID); err != nil {
			return err
		}
		fmt.Printf("Restored %d trackers from %s\n", len(records), args[0])
		return nil
	},
}
