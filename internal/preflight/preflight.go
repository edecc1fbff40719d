package preflight

import (
	"context"
	"path/filepath"

	"nabscan/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Warning bool
	Detail  string
}

// RunAll executes the preflight checks that apply to the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	if cfg.Paths.LogDir != "" && cfg.Paths.LogDir != cfg.Paths.DataDir {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	dbDir := filepath.Dir(cfg.Database.Path)
	if dbDir != cfg.Paths.DataDir {
		results = append(results, CheckDirectoryAccess("Database directory", dbDir))
	}
	results = append(results, CheckFreeSpace("Database free space", dbDir, MinFreeBytes))

	results = append(results, CheckCommands(ctx, cfg.Collaborators)...)
	return results
}

// Failed returns the results that did not pass and are not warnings.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Warning {
			failed = append(failed, r)
		}
	}
	return failed
}
