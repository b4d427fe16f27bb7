package analyzer

import (
	"context"

	"github.com/san-kum/vsmkit/internal/loop"
	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 4

// Job is one named trace to analyse along a fixed axis.
type Job struct {
	Name  string
	Trace loop.Trace
}

// BatchResult pairs a job name with its analysis.
type BatchResult struct {
	Name   string
	Result *AxisResult
}

// AnalyzeBatch analyses jobs on at most workers goroutines. Results keep
// the job order; per-job failures are recorded in each result, so the only
// error returned is the context's.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, jobs []Job, axis loop.Axis, workers int) ([]BatchResult, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	results := make([]BatchResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, _ := a.AnalyzeRaw(ctx, job.Trace, axis)
			results[i] = BatchResult{Name: job.Name, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
