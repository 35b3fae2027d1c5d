// Package parallel runs independent jobs concurrently for scalargrad.
//
// A single graph is never differentiated concurrently; parallelism happens
// across graphs that share no nodes, such as a batch of expressions.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Maximum concurrent jobs; <= 0 means runtime.NumCPU().
	MinBatch   int  // Batches smaller than this run sequentially.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinBatch:   2,
	}
}

// WithWorkers returns cfg with NumWorkers set, leaving the default when
// n <= 0. A single worker disables parallelism.
func (cfg Config) WithWorkers(n int) Config {
	if n > 0 {
		cfg.NumWorkers = n
		cfg.Enabled = n > 1
	}
	return cfg
}

// For executes f(ctx, i) for i in [0, n) and returns the first error.
//
// Sequential when parallelism is disabled or n < MinBatch. Otherwise at most
// NumWorkers calls run at once; after the first failure the context passed
// to the remaining calls is cancelled and no new calls start.
func For(ctx context.Context, n int, f func(ctx context.Context, i int) error, cfg Config) error {
	if !cfg.Enabled || n < cfg.MinBatch {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := f(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	workers := cfg.NumWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return f(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Map applies f to every item and returns the results in input order.
func Map[T, R any](ctx context.Context, items []T, f func(ctx context.Context, item T) (R, error), cfg Config) ([]R, error) {
	out := make([]R, len(items))
	err := For(ctx, len(items), func(ctx context.Context, i int) error {
		r, err := f(ctx, items[i])
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	}, cfg)
	if err != nil {
		return nil, err
	}
	return out, nil
}
