package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goqvalue/domain/fdr"
	"goqvalue/internal/errors"
)

var configKeys = []string{
	"DATABASE_URL", "PORT", "GIN_MODE", "LOG_LEVEL", "PI0_METHOD", "SMOOTH_DF", "SMOOTH_LOG_PI0",
	"LAMBDA_MIN", "LAMBDA_MAX", "LAMBDA_STEP", "LFDR_TRANSFORM", "LFDR_ADJUST", "BATCH_CONCURRENCY",
	"PPROF_PORT", "PPROF_ENABLED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.False(t, cfg.Profiling.Enabled)
	assert.Equal(t, fdr.DefaultEstimatorConfig(), cfg.EstimatorConfig())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/qvalue?sslmode=disable")
	t.Setenv("PORT", "9090")
	t.Setenv("PI0_METHOD", "bootstrap")
	t.Setenv("SMOOTH_DF", "4")
	t.Setenv("SMOOTH_LOG_PI0", "true")
	t.Setenv("LAMBDA_MIN", "0.1")
	t.Setenv("LAMBDA_MAX", "0.8")
	t.Setenv("LAMBDA_STEP", "0.1")
	t.Setenv("LFDR_TRANSFORM", "logit")
	t.Setenv("LFDR_ADJUST", "2")
	t.Setenv("BATCH_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 8, cfg.Batch.Concurrency)

	est := cfg.EstimatorConfig()
	assert.Equal(t, fdr.Pi0Bootstrap, est.Pi0Method)
	assert.Equal(t, fdr.TransformLogit, est.Transform)
	assert.Equal(t, 4.0, est.SmoothDF)
	assert.True(t, est.LogSmoothing())
	assert.Equal(t, 2.0, est.Adjust)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}, est.Lambda)
}

func TestLoad_SingleLambda(t *testing.T) {
	clearEnv(t)
	t.Setenv("LAMBDA_MIN", "0.5")
	t.Setenv("LAMBDA_MAX", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, cfg.EstimatorConfig().Lambda)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown method", map[string]string{"PI0_METHOD": "spline"}},
		{"unknown transform", map[string]string{"LFDR_TRANSFORM": "arcsine"}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "chatty"}},
		{"lambda max at one", map[string]string{"LAMBDA_MAX": "1"}},
		{"short lambda grid", map[string]string{"LAMBDA_MIN": "0.1", "LAMBDA_MAX": "0.3", "LAMBDA_STEP": "0.1"}},
		{"smooth df too small", map[string]string{"SMOOTH_DF": "1"}},
		{"adjust negative", map[string]string{"LFDR_ADJUST": "-1"}},
		{"zero concurrency", map[string]string{"BATCH_CONCURRENCY": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
