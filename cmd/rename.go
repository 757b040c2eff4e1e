package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a tracker",
	Args:  cobra.MinimumNArgs(2),
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

		name := strings.Join(args[1:], " ")
		if err := m.Rename(id, name); err != nil {
			return err
		}
		fmt.Printf("Renamed tracker %d to %s\n", id, strings.TrimSpace(name))
		return nil
	},
}
