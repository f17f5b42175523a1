package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/store"
)

var tapMatch string

var tapCmd = &cobra.Command{
	Use:   "tap [id...]",
	Short: "Record memory usage",
	Long: "Record that memories were used. Taps drive generation promotion and\n" +
		"protect memories from garbage collection.",
	Args: cobra.ArbitraryArgs,
	RunE: runTap,
}

func init() {
	tapCmd.Flags().StringVar(&tapMatch, "match", "", "tap every memory whose content contains this substring")
}

func runTap(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && tapMatch == "" {
		return errors.New("nothing to tap: give ids or --match")
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var tapped, notFound []string

	if tapMatch != "" {
		var matched []store.Memory
		if err := retryLocked(func() error {
			var err error
			matched, err = db.TapByMatch(tapMatch)
			return err
		}); err != nil {
			return err
		}
		for _, m := range matched {
			tapped = append(tapped, m.ID)
		}
	}

	for _, ref := range args {
		var m *store.Memory
		err := retryLocked(func() error {
			var err error
			m, err = db.Tap(ref)
			return err
		})
		switch {
		case err == nil:
			tapped = append(tapped, m.ID)
		case errors.Is(err, store.ErrNotFound):
			notFound = append(notFound, ref)
		default:
			return fmt.Errorf("tap %s: %w", ref, err)
		}
	}

	if len(tapped) == 0 && len(notFound) == 0 {
		fmt.Println("No memories to tap.")
		return nil
	}
	if len(tapped) > 0 {
		fmt.Printf("Tapped %d memory(ies): %s\n", len(tapped), strings.Join(tapped, ", "))
	}
	if len(notFound) > 0 {
		return fmt.Errorf("not found: %s", strings.Join(notFound, ", "))
	}
	return nil
}
