package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a specific memory",
	Long:  "Show a memory by id or by an unambiguous id prefix.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	m, err := db.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ID:         %s\n", m.ID)
	fmt.Printf("Content:    %s\n", m.Content)
	fmt.Printf("Scope:      %s\n", m.Scope)
	fmt.Printf("Generation: %d\n", m.Generation)
	fmt.Printf("Taps:       %d\n", m.TapCount)
	fmt.Printf("Created:    %s\n", formatTime(m.CreatedAt))
	if m.LastTappedAt != nil {
		fmt.Printf("Last tap:   %s\n", formatTime(*m.LastTappedAt))
	}
	return nil
}
