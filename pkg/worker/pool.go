// Package worker runs independent per-profile jobs on a bounded pool.
package worker

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config holds configuration for the local pool
type Config struct {
	Workers int // number of goroutines, defaults to GOMAXPROCS
}

// DefaultConfig returns one worker per available CPU
func DefaultConfig() Config {
	return Config{Workers: runtime.GOMAXPROCS(0)}
}

// Map applies fn to every item on cfg.Workers goroutines. Item i is handled
// by worker i % workers, so each worker owns a fixed slice of the input.
// Results are returned in input order once every call has finished; the
// first error cancels the remaining calls and is returned alone.
func Map[T, R any](ctx context.Context, cfg Config, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(items))

	results := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := w; i < len(items); i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := fn(ctx, items[i])
				if err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				results[i] = r
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
