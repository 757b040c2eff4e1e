package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a tracker and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid tracker id %q", args[0])
		}

		m, _, err := openManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Delete(id); err != nil {
			return err
		}
		fmt.Printf("Deleted tracker %d\n", id)
		return nil
	},
}
