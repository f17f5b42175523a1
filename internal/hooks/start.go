package hooks

import (
	"github.com/lazypower/engram/internal/config"
	"github.com/lazypower/engram/internal/engine"
	"github.com/lazypower/engram/internal/scope"
	"github.com/lazypower/engram/internal/store"
)

// openStore opens the configured store. Config problems fall back to
// defaults; only the open itself can fail.
func openStore() (*store.DB, error) {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		cfg = config.Default()
	}
	return store.Open(cfg.ResolveDBPath(""), cfg.StoreOptions())
}

func handleStart(input *HookInput) {
	db, err := openStore()
	if err != nil {
		// Degrade gracefully — return empty context
		WriteSessionStartOutput("")
		return
	}
	defer db.Close()

	scopes := []scope.Scope{scope.Global}
	if input.CWD != "" {
		if proj, err := scope.Project(input.CWD); err == nil {
			scopes = append(scopes, proj)
		}
	}

	context, err := engine.New(db).BuildContext(scopes)
	if err != nil {
		WriteSessionStartOutput("")
		return
	}
	WriteSessionStartOutput(context)
}
