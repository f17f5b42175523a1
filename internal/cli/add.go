package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/scope"
	"github.com/lazypower/engram/internal/store"
)

var addScope string

var addCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Add a new memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addScope, "scope", "global", "scope: global or project:<path>")
}

func runAdd(cmd *cobra.Command, args []string) error {
	sc, err := scope.Parse(addScope)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var m *store.Memory
	if err := retryLocked(func() error {
		var err error
		m, err = db.Add(args[0], sc)
		return err
	}); err != nil {
		return err
	}

	fmt.Printf("Added memory: %s\n", m.ID)
	return nil
}
