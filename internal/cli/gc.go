package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/store"
)

var gcDryRun bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Expire old untapped memories",
	Long: "Expire memories that were never tapped and have outlived the grace period.\n" +
		"The newest memory in each scope always survives.",
	Args: cobra.NoArgs,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "report candidates without expiring them")
}

func runGC(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var candidates []store.GCCandidate
	if err := retryLocked(func() error {
		var err error
		candidates, err = db.CollectGarbage(gcDryRun)
		return err
	}); err != nil {
		return err
	}

	prefix := ""
	if gcDryRun {
		prefix = "[DRY RUN] "
	}
	if len(candidates) == 0 {
		fmt.Printf("%sNo changes.\n", prefix)
		return nil
	}

	fmt.Printf("%sExpired %d memory(ies):\n", prefix, len(candidates))
	for _, c := range candidates {
		fmt.Printf("  - [%s] %s (%s)\n", shortID(c.ID), truncate(c.Content, 40), c.Reason)
	}
	return nil
}
