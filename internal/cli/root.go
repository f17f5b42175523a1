package cli

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/config"
	"github.com/lazypower/engram/internal/store"
)

var (
	flagDBPath  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Garbage-collected memory for coding agents",
	Long: "Engram stores short-lived memories for agent sessions. Memories that get\n" +
		"used (tapped) survive; memories nobody touches age out.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	log.SetReportTimestamp(false)

	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "database path (overrides ENGRAM_DB_PATH and config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(tapCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(verifyCmd)
}

// openStore opens the configured database for CLI commands.
func openStore() (*store.DB, error) {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return nil, err
	}
	path := cfg.ResolveDBPath(flagDBPath)
	log.Debug("opening store", "path", path)
	return store.Open(path, cfg.StoreOptions())
}

const lockRetries = 3

// retryLocked runs fn, retrying with backoff when another process holds the
// write lock past the store's busy timeout.
func retryLocked(fn func() error) error {
	delay := 100 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := fn()
		if !errors.Is(err, store.ErrStoreLocked) || attempt == lockRetries {
			return err
		}
		log.Warn("store locked, retrying", "attempt", attempt, "delay", delay)
		time.Sleep(delay)
		delay *= 2
	}
}
