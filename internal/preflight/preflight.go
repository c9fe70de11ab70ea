package preflight

import (
	"context"

	"voicecast/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Directories checks the state, checkpoint and log directories.
func Directories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Checkpoint directory", cfg.Paths.CheckpointDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// RunAll executes every preflight check for the given config. The inference
// check is skipped when skipLLM is set.
func RunAll(ctx context.Context, cfg *config.Config, skipLLM bool) []Result {
	if cfg == nil {
		return nil
	}
	results := Directories(cfg)
	results = append(results, CheckResultsDB(cfg.Paths.ResultsDB))
	if !skipLLM {
		results = append(results, CheckLLM(ctx, "Inference API", cfg.GetLLM()))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
