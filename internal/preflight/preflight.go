package preflight

import (
	"context"

	"discompressor/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Data directory holds history and logs.
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))

	// Install directory may not exist yet; its parent must then be writable.
	results = append(results, CheckInstallTarget("Install directory", cfg.Paths.InstallDir))

	// Scratch space for release downloads.
	results = append(results, CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir))

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
