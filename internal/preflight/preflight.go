package preflight

import (
	"context"

	"texthighlight/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// MinFreeBytes is the free space below which the work directory check fails.
// Aligner output for long recordings includes subtitle files and CTM sets for
// tokens, words, and segments.
const MinFreeBytes = 512 << 20

// RunAll executes the filesystem and runtime checks for cfg. Module import
// checks start a Python interpreter and are left to callers that want them.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinFreeBytes))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	for _, st := range CheckSystemDeps(ctx, cfg) {
		results = append(results, Result{Name: st.Name, Passed: st.Available || st.Optional, Detail: statusDetail(st.Command, st.Detail)})
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

func statusDetail(command, detail string) string {
	if detail == "" {
		return command
	}
	return detail
}
