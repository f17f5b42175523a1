package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/store"
)

var editCmd = &cobra.Command{
	Use:   "edit [id] [content]",
	Short: "Replace a memory's content",
	Long:  "Replace a memory's content with the given text, or with stdin when no text is given.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	var content string
	if len(args) == 2 {
		content = args[1]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		content = strings.TrimSuffix(string(data), "\n")
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var m *store.Memory
	if err := retryLocked(func() error {
		var err error
		m, err = db.Edit(args[0], content)
		return err
	}); err != nil {
		return err
	}

	fmt.Printf("Updated memory: %s\n", m.ID)
	return nil
}
