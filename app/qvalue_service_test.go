package app

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"goqvalue/domain/core"
	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/errors"
	"goqvalue/internal/qvalue"
	"goqvalue/internal/testkit"
	"goqvalue/ports"
)

type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) SaveRun(ctx context.Context, run *fdr.Run) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunRepository) GetRun(ctx context.Context, id core.RunID) (*fdr.Run, error) {
	args := m.Called(ctx, id)
	run, _ := args.Get(0).(*fdr.Run)
	return run, args.Error(1)
}

func (m *MockRunRepository) ListRuns(ctx context.Context, limit, offset int) ([]ports.RunSummary, error) {
	args := m.Called(ctx, limit, offset)
	list, _ := args.Get(0).([]ports.RunSummary)
	return list, args.Error(1)
}

// engineWithFixedPi0 computes real q-values with a known pi0 and records
// the options it saw
type engineWithFixedPi0 struct {
	mu   sync.Mutex
	seen []qvalue.Options
}

func (e *engineWithFixedPi0) Compute(p []float64, opts qvalue.Options) (*fdr.Result, error) {
	e.mu.Lock()
	e.seen = append(e.seen, opts)
	e.mu.Unlock()
	pi0 := 1.0
	opts.Pi0 = &pi0
	opts.SkipLFDR = true
	return qvalue.NewEngine(nil, nil, internal.NopLogger()).Compute(p, opts)
}

func floatPtr(v float64) *float64 { return &v }

func TestAnalyze_StoresRun(t *testing.T) {
	repo := new(MockRunRepository)
	repo.On("SaveRun", mock.Anything, mock.AnythingOfType("*fdr.Run")).Return(nil)
	svc := NewQValueService(&engineWithFixedPi0{}, repo, fdr.DefaultEstimatorConfig(), 2, internal.NopLogger())

	run, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Name:    "screen",
		PValues: []float64{0.01, 0.04},
		Options: qvalue.Options{FDRLevel: floatPtr(0.05)},
	})
	require.NoError(t, err)

	assert.Equal(t, "screen", run.Name)
	assert.False(t, run.ID.String() == "")
	assert.InDeltaSlice(t, []float64{0.02, 0.04}, run.Result.QValues(), 1e-12)
	assert.Equal(t, 2, run.Result.NumSignificant())
	repo.AssertExpectations(t)
}

func TestAnalyze_MergesServiceDefaultsFieldByField(t *testing.T) {
	engine := &engineWithFixedPi0{}
	defaults := fdr.DefaultEstimatorConfig()
	defaults.Pi0Method = fdr.Pi0Bootstrap
	defaults.Adjust = 2
	defaults.SmoothLogPi0 = fdr.Bool(true)
	svc := NewQValueService(engine, nil, defaults, 1, internal.NopLogger())

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{PValues: []float64{0.5}})
	require.NoError(t, err)

	own := fdr.EstimatorConfig{Transform: fdr.TransformLogit, Truncate: fdr.Bool(false)}
	_, err = svc.Analyze(context.Background(), AnalyzeRequest{PValues: []float64{0.5}, Options: qvalue.Options{Estimator: own}})
	require.NoError(t, err)

	require.Len(t, engine.seen, 2)
	assert.Equal(t, defaults, engine.seen[0].Estimator)

	merged := engine.seen[1].Estimator
	assert.Equal(t, fdr.TransformLogit, merged.Transform)
	assert.False(t, merged.TruncateLFDR())
	assert.Equal(t, 2.0, merged.Adjust)
	assert.Equal(t, fdr.Pi0Bootstrap, merged.Pi0Method)
	assert.True(t, merged.LogSmoothing())
	assert.True(t, merged.MonotoneLFDR())
	assert.Nil(t, own.Lambda, "request config is not modified")
}

func TestAnalyze_RangeErrorNotStored(t *testing.T) {
	repo := new(MockRunRepository)
	svc := NewQValueService(&engineWithFixedPi0{}, repo, fdr.DefaultEstimatorConfig(), 1, internal.NopLogger())

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{PValues: []float64{2}})
	assert.True(t, errors.IsRangeError(err))
	repo.AssertNotCalled(t, "SaveRun", mock.Anything, mock.Anything)
}

func TestAnalyze_StorageFailure(t *testing.T) {
	repo := new(MockRunRepository)
	repo.On("SaveRun", mock.Anything, mock.Anything).Return(errors.DatabaseError("insert failed", stderrors.New("conn reset")))
	svc := NewQValueService(&engineWithFixedPi0{}, repo, fdr.DefaultEstimatorConfig(), 1, internal.NopLogger())

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{PValues: []float64{0.5}})
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}

func TestAnalyzeBatch(t *testing.T) {
	repo := testkit.NewInMemoryRunRepository()
	svc := NewQValueService(&engineWithFixedPi0{}, repo, fdr.DefaultEstimatorConfig(), 2, internal.NopLogger())

	items, err := svc.AnalyzeBatch(context.Background(), []AnalyzeRequest{
		{Name: "ok", PValues: []float64{0.01, 0.04}},
		{Name: "bad", PValues: []float64{-1}},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotNil(t, items[0].Run)
	assert.Equal(t, "ok", items[0].Run.Name)
	assert.True(t, errors.IsRangeError(items[1].Err))
	assert.Nil(t, items[1].Run)

	list, err := svc.ListRuns(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetRunAndSummarize(t *testing.T) {
	repo := testkit.NewInMemoryRunRepository()
	svc := NewQValueService(&engineWithFixedPi0{}, repo, fdr.DefaultEstimatorConfig(), 1, internal.NopLogger())
	ctx := context.Background()

	run, err := svc.Analyze(ctx, AnalyzeRequest{Name: "s", PValues: []float64{0.001, 0.2}})
	require.NoError(t, err)

	got, err := svc.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)

	sum, err := svc.Summarize(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.NumTests)
	assert.Equal(t, []int{0, 0, 1, 1, 1, 1, 2}, sum.PValue)

	_, err = svc.GetRun(ctx, core.RunID(core.NewID()))
	assert.True(t, core.IsNotFoundError(err))
}

func TestWithoutRepository(t *testing.T) {
	svc := NewQValueService(&engineWithFixedPi0{}, nil, fdr.DefaultEstimatorConfig(), 1, internal.NopLogger())
	ctx := context.Background()

	run, err := svc.Analyze(ctx, AnalyzeRequest{PValues: []float64{0.3}})
	require.NoError(t, err)

	_, err = svc.GetRun(ctx, run.ID)
	assert.True(t, core.IsNotFoundError(err))

	list, err := svc.ListRuns(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ListRuns(ctx, -1, 0)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
