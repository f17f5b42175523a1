package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/store"
)

var removeCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var m *store.Memory
	if err := retryLocked(func() error {
		var err error
		m, err = db.Remove(args[0])
		return err
	}); err != nil {
		return err
	}

	fmt.Printf("Removed: %s\n", m.ID)
	return nil
}
