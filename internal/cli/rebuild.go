package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the projection from the event log",
	Long: "Discard the current-state table and replay the full event log. Use after\n" +
		"verify reports a mismatch.",
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the projection against the event log",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var n int
	if err := retryLocked(func() error {
		var err error
		n, err = db.Rebuild()
		return err
	}); err != nil {
		return err
	}
	fmt.Printf("Rebuilt projection from %d events.\n", n)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := db.Verify(); err != nil {
		return err
	}
	fmt.Println("OK: projection matches the event log.")
	return nil
}
