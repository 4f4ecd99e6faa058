package preflight

import (
	"context"

	"contentsbuilder/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options adjusts which checks RunAll performs.
type Options struct {
	// SkipModels omits the generation endpoint round trips.
	SkipModels bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckWorkbook(ctx, cfg),
		CheckAPIKey(cfg),
	}
	if opts.SkipModels || cfg.RequireAPIKey() != nil {
		return results
	}

	results = append(results, CheckGemini(ctx, "Screening model", cfg.Gemini.ModelScreening, cfg))
	if cfg.Gemini.ModelGeneration != "" && cfg.Gemini.ModelGeneration != cfg.Gemini.ModelScreening {
		results = append(results, CheckGemini(ctx, "Generation model", cfg.Gemini.ModelGeneration, cfg))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
