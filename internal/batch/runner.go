// Package batch runs many independent q-value computations under a
// weighted concurrency limit.
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/qvalue"
)

// testsPerWeight is how many p-values count as one unit of semaphore weight
const testsPerWeight = 50000

// Computer is satisfied by *qvalue.Engine
type Computer interface {
	Compute(p []float64, opts qvalue.Options) (*fdr.Result, error)
}

// Job is one p-value vector with its options
type Job struct {
	Name    string
	PValues []float64
	Options qvalue.Options
}

// Outcome is the result or error of one job, in submission order
type Outcome struct {
	Index    int
	Name     string
	Result   *fdr.Result
	Err      error
	Duration time.Duration
}

// Runner executes jobs concurrently. Large vectors take more semaphore
// weight so a few big jobs cannot starve the process.
type Runner struct {
	computer Computer
	capacity int64
	sem      *semaphore.Weighted
	logger   *internal.Logger
}

// NewRunner creates a runner allowing up to concurrency units of work at once
func NewRunner(computer Computer, concurrency int, logger *internal.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runner{
		computer: computer,
		capacity: int64(concurrency),
		sem:      semaphore.NewWeighted(int64(concurrency)),
		logger:   logger,
	}
}

// weight is 1 plus one unit per testsPerWeight p-values, capped at capacity
func (r *Runner) weight(job Job) int64 {
	w := 1 + int64(len(job.PValues)/testsPerWeight)
	if w > r.capacity {
		w = r.capacity
	}
	return w
}

// Run computes every job. A failing job does not stop the others; its error
// is recorded in its Outcome. The returned error is non-nil only when ctx
// ends before every job has started.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)

	for i, job := range jobs {
		w := r.weight(job)
		err := gctx.Err()
		if err == nil {
			err = r.sem.Acquire(gctx, w)
		}
		if err != nil {
			g.Wait()
			return outcomes, fmt.Errorf("batch interrupted before job %d: %w", i, err)
		}

		g.Go(func() error {
			defer r.sem.Release(w)

			start := time.Now()
			result, err := r.computer.Compute(job.PValues, job.Options)
			outcomes[i] = Outcome{
				Index:    i,
				Name:     job.Name,
				Result:   result,
				Err:      err,
				Duration: time.Since(start),
			}
			if err != nil {
				r.logger.Warn("[batch] job %d (%s) failed: %v", i, job.Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}

	r.logger.Debug("[batch] completed %d jobs", len(jobs))
	return outcomes, nil
}
