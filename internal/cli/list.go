package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/scope"
	"github.com/lazypower/engram/internal/store"
)

var (
	listScope string
	listGen   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List memories",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listScope, "scope", "", "filter by scope (global or project:<path>)")
	listCmd.Flags().IntVar(&listGen, "gen", -1, "filter by generation (0, 1 or 2)")
}

func runList(cmd *cobra.Command, args []string) error {
	var filter store.ListFilter
	if listScope != "" {
		sc, err := scope.Parse(listScope)
		if err != nil {
			return err
		}
		filter.Scope = &sc
	}
	if listGen >= 0 {
		filter.Generation = &listGen
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	memories, err := db.List(filter)
	if err != nil {
		return err
	}
	if len(memories) == 0 {
		fmt.Println("No memories found.")
		return nil
	}
	for _, m := range memories {
		fmt.Printf("[%s] gen%d taps:%d %s | %s\n", m.ID, m.Generation, m.TapCount, m.Scope, m.Content)
	}
	return nil
}
