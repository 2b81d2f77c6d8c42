package preflight

import (
	"context"

	"podbrief/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every readiness check for the given config: state and log
// directory access, Gemini, Telegram, and one reachability probe per
// configured feed.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckGemini(ctx, cfg.GetGemini()),
		CheckTelegram(ctx, cfg.GetTelegram()),
	}
	return append(results, CheckFeeds(ctx, cfg.Feeds)...)
}

// Failures filters results down to the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
