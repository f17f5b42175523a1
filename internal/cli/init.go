package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/engine"
	"github.com/lazypower/engram/internal/scope"
)

var initScopes []string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Print the session context block",
	Long: "Print the memories visible in the given scopes as a context block for\n" +
		"injection at session start. Defaults to global only.",
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringArrayVar(&initScopes, "scope", nil, "scope to include (repeatable)")
}

func runInit(cmd *cobra.Command, args []string) error {
	var scopes []scope.Scope
	for _, raw := range initScopes {
		sc, err := scope.Parse(raw)
		if err != nil {
			return err
		}
		scopes = append(scopes, sc)
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	context, err := engine.New(db).BuildContext(scopes)
	if err != nil {
		return err
	}
	fmt.Print(context)
	return nil
}
