package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/notify"
	"cadence/internal/schedule"
	"cadence/internal/store"
	"cadence/internal/tracker"
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Track recurring tasks and predict their next occurrence",
}

func Execute() error { return rootCmd.Execute() }

// openManager wires config, store and manager for a command. The caller
// owns the Close.
func openManager() (*tracker.Manager, config.Config, error) {
	cfg, _ := config.Load()

	path, err := store.DefaultPath()
	if err != nil {
		return nil, cfg, err
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, cfg, err
	}

	m, err := tracker.NewManager(st, tracker.Options{
		MaxHistory:       cfg.Tracker.MaxHistory,
		SpreadMultiplier: cfg.Tracker.SpreadMultiplier,
		PageSize:         cfg.Tracker.PageSize,
	})
	if err != nil {
		_ = st.Close()
		return nil, cfg, err
	}
	return m, cfg, nil
}

func dueCount() int {
	m, _, err := openManager()
	if err != nil {
		return 0
	}
	defer m.Close()
	return m.DueCount(time.Now())
}

func init() {
	cfg, _ := config.Load()

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cfg.Reminder.Enabled && os.Getenv("CADENCE_NO_REMINDER") != "1" {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			go func() {
				schedule.RunConfigured(ctx, cfg, func() {
					title, msg := notify.FormatDuePrompt(dueCount())
					_ = notify.Info(title, msg)
				})
			}()
			// Process exit cancels via signal; nothing to store.
			_ = cancel
		}
		return nil
	}

	rootCmd.AddCommand(
		addCmd, listCmd, recordCmd, deleteCmd, infoCmd, renameCmd,
		historyCmd, backupCmd, restoreCmd, tuiCmd, versionCmd,
	)
}
