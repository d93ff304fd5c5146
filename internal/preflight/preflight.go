package preflight

import (
	"storypack/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and renderer checks for the given config.
// The CLI surfaces these in the deps command.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	return []Result{
		CheckDirectoryAccess("Stories folder", cfg.Paths.BaseDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckRenderBackends(cfg),
	}
}
