package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a new tracker",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, _, err := openManager()
		if err != nil {
			return err
		}
		defer m.Close()

		name := strings.Join(args, " ")
		id, err := m.Create(name)
		if err != nil {
			return err
		}
		fmt.Printf("Created tracker %d: %s\n", id, strings.TrimSpace(name))
		return nil
	},
}
