package app

import (
	"context"
	"fmt"

	"goqvalue/domain/core"
	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/batch"
	"goqvalue/internal/errors"
	"goqvalue/internal/qvalue"
	"goqvalue/internal/summary"
	"goqvalue/ports"
)

// QValueService computes q-values and keeps the resulting runs
type QValueService struct {
	engine   batch.Computer
	runs     ports.RunRepository
	runner   *batch.Runner
	defaults fdr.EstimatorConfig
	logger   *internal.Logger
}

// AnalyzeRequest is one named p-value vector to analyze
type AnalyzeRequest struct {
	Name    string
	PValues []float64
	Options qvalue.Options
}

// BatchItem is the outcome of one request in a batch
type BatchItem struct {
	Run *fdr.Run
	Err error
}

// NewQValueService creates the service. runs may be nil, in which case
// nothing is persisted and lookups report not found.
func NewQValueService(engine batch.Computer, runs ports.RunRepository, defaults fdr.EstimatorConfig, concurrency int, logger *internal.Logger) *QValueService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &QValueService{
		engine:   engine,
		runs:     runs,
		runner:   batch.NewRunner(engine, concurrency, logger),
		defaults: defaults.Clone(),
		logger:   logger,
	}
}

// withDefaults fills every estimator field the request leaves unset from
// the service defaults
func (s *QValueService) withDefaults(opts qvalue.Options) qvalue.Options {
	opts.Estimator = opts.Estimator.Over(s.defaults)
	return opts
}

// Analyze computes one result and stores it as a run
func (s *QValueService) Analyze(ctx context.Context, req AnalyzeRequest) (*fdr.Run, error) {
	result, err := s.engine.Compute(req.PValues, s.withDefaults(req.Options))
	if err != nil {
		return nil, err
	}

	run := fdr.NewRun(req.Name, result)
	if err := s.save(ctx, run); err != nil {
		return nil, err
	}

	s.logger.Info("[QValueService] run %s (%q): m=%d pi0=%.4f significant=%d",
		run.ID, run.Name, result.Len(), result.Pi0(), result.NumSignificant())
	return run, nil
}

// AnalyzeBatch analyzes every request concurrently. Per-request failures are
// reported in the matching BatchItem; the error return is reserved for
// cancellation and storage failures.
func (s *QValueService) AnalyzeBatch(ctx context.Context, reqs []AnalyzeRequest) ([]BatchItem, error) {
	jobs := make([]batch.Job, len(reqs))
	for i, req := range reqs {
		jobs[i] = batch.Job{Name: req.Name, PValues: req.PValues, Options: s.withDefaults(req.Options)}
	}

	outcomes, err := s.runner.Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	items := make([]BatchItem, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil {
			items[i] = BatchItem{Err: o.Err}
			continue
		}
		run := fdr.NewRun(o.Name, o.Result)
		if err := s.save(ctx, run); err != nil {
			return nil, err
		}
		items[i] = BatchItem{Run: run}
	}
	return items, nil
}

func (s *QValueService) save(ctx context.Context, run *fdr.Run) error {
	if s.runs == nil {
		return nil
	}
	if err := s.runs.SaveRun(ctx, run); err != nil {
		return errors.Wrapf(err, "failed to store run %s", run.ID)
	}
	return nil
}

// GetRun loads a stored run
func (s *QValueService) GetRun(ctx context.Context, id core.RunID) (*fdr.Run, error) {
	if s.runs == nil {
		return nil, core.NewNotFoundError("run", id.String())
	}
	return s.runs.GetRun(ctx, id)
}

// ListRuns lists stored runs, newest first
func (s *QValueService) ListRuns(ctx context.Context, limit, offset int) ([]ports.RunSummary, error) {
	if limit < 0 || offset < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("limit and offset must be non-negative, got %d and %d", limit, offset))
	}
	if s.runs == nil {
		return []ports.RunSummary{}, nil
	}
	return s.runs.ListRuns(ctx, limit, offset)
}

// Summarize tabulates a stored run against the standard cutoffs
func (s *QValueService) Summarize(ctx context.Context, id core.RunID) (*summary.Summary, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return summary.New(run.Result), nil
}
