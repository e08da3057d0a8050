package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is one independent backtest. Engines must not be shared between jobs.
type Job struct {
	Name   string
	Engine *Engine
}

type JobResult struct {
	Name   string
	Result *BacktestResult
	Err    error
}

// RunAll runs independent backtests with at most limit in flight. A failing
// run is reported in its JobResult and does not stop the others; only context
// cancellation aborts the batch. Results keep the order of jobs.
func RunAll(ctx context.Context, jobs []Job, limit int) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := job.Engine.Run()
			results[i] = JobResult{Name: job.Name, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
