package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/engine"
	"github.com/lazypower/engram/internal/store"
)

var (
	logAction string
	logMemory string
	logLimit  int
	logAsc    bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the event log",
	Long:  "Show the append-only event log, newest first. Every mutation leaves a trace here.",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().StringVar(&logAction, "action", "", "filter by action (ADD, TAP, EDIT, REMOVE, EXPIRE, PROMOTE)")
	logCmd.Flags().StringVar(&logMemory, "memory", "", "filter by memory id or prefix")
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "maximum number of events")
	logCmd.Flags().BoolVar(&logAsc, "asc", false, "oldest first instead of newest first")
}

func runLog(cmd *cobra.Command, args []string) error {
	filter := store.EventFilter{
		Limit:      logLimit,
		Descending: !logAsc,
	}
	if logAction != "" {
		action, err := store.ParseAction(logAction)
		if err != nil {
			return err
		}
		filter.Action = action
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if logMemory != "" {
		m, err := db.Get(logMemory)
		if err != nil {
			return err
		}
		filter.MemoryID = m.ID
	}

	events, err := db.Events(filter)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No events.")
		return nil
	}

	enriched, err := engine.New(db).EnrichEvents(events)
	if err != nil {
		return err
	}
	for _, ev := range enriched {
		fmt.Printf("%6d  %s  %-7s %-8s %s\n",
			ev.SequenceID, formatTime(ev.Timestamp), ev.Action, shortID(ev.MemoryID), truncate(ev.Content, 60))
	}
	return nil
}
