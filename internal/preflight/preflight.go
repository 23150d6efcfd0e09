package preflight

import (
	"context"
	"errors"
	"fmt"

	"tempo/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectory("Data directory", cfg.Paths.DataDir),
		CheckDirectory("Output directory", cfg.Paths.OutputDir),
		CheckDirectory("Log directory", cfg.Paths.LogDir),
		CheckCatalog(cfg.Paths.Catalog),
	}

	if cfg.Store.Enabled {
		results = append(results, CheckStore(ctx, cfg))
	}

	return results
}

// Err folds failing results into one error naming every failed check, or
// nil when everything passed.
func Err(results []Result) error {
	var errs []error
	for _, result := range results {
		if result.Passed {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %s", result.Name, result.Detail))
	}
	return errors.Join(errs...)
}
