package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	s, err := db.Stats()
	if err != nil {
		return err
	}

	fmt.Println("=== Engram Stats ===")
	fmt.Printf("Total memories: %d\n", s.Total)
	fmt.Println()
	fmt.Println("By generation:")
	fmt.Printf("  Gen 0 (ephemeral):  %d\n", s.ByGeneration[0])
	fmt.Printf("  Gen 1 (surviving):  %d\n", s.ByGeneration[1])
	fmt.Printf("  Gen 2 (permanent):  %d\n", s.ByGeneration[2])
	fmt.Println()
	fmt.Println("Taps:")
	fmt.Printf("  Total taps:    %d\n", s.TotalTaps)
	fmt.Printf("  Never tapped:  %d\n", s.ByGeneration[0])
	if len(s.ByScope) > 0 {
		fmt.Println()
		fmt.Println("By scope:")
		for _, sc := range s.ByScope {
			fmt.Printf("  %s: %d\n", sc.Scope, sc.Count)
		}
	}

	activity, err := db.ActivityByDay(7)
	if err != nil {
		return err
	}
	if len(activity) > 0 {
		fmt.Println()
		fmt.Println("Activity (last 7 days):")
		for _, d := range activity {
			fmt.Printf("  %s  adds:%d taps:%d edits:%d removes:%d expires:%d promotes:%d\n",
				d.Day, d.Adds, d.Taps, d.Edits, d.Removes, d.Expires, d.Promotes)
		}
	}

	hot, err := db.HotMemories(24*time.Hour, 5)
	if err != nil {
		return err
	}
	if len(hot) > 0 {
		fmt.Println()
		fmt.Println("Hot (last 24h):")
		for _, h := range hot {
			fmt.Printf("  [%s] %d taps | %s\n", shortID(h.ID), h.RecentTaps, truncate(h.Content, 60))
		}
	}
	return nil
}
