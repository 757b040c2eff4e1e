package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/parse"
	"cadence/internal/tracker"
)

var recordCmd = &cobra.Command{
	Use:   "record <id> [datetime[, duration]]",
	Short: "Record a completion for a tracker",
	Long: `Examples:
	cadence record 3                   # completed now
	cadence record 3 yesterday         # completed yesterday, same time
	cadence record 3 "241230T0815"     # exact timestamp
	cadence record 3 "today, -2h30m"   # finished 2.5h faster than usual`,
	Args: cobra.MinimumNArgs(1),
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

		input := "now"
		if len(args) > 1 {
			input = strings.Join(args[1:], " ")
		}
		at, dev, err := parse.ParseCompletion(input, cfg.Location())
		if err != nil {
			return err
		}

		if err := m.RecordCompletion(id, tracker.Completion{At: at, Deviation: dev}); err != nil {
			return err
		}

		t, _ := m.Get(id)
		fmt.Printf("Recorded %s for %s\n", parse.FormatStamp(at), t.Name)
		return nil
	},
}
