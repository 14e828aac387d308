package postgres

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goqvalue/domain/fdr"
)

func sampleRun() *fdr.Run {
	level := 0.05
	result := fdr.NewResult(fdr.ResultParts{
		Params: fdr.Params{PFDR: true, FDRLevel: &level, LFDR: true, Estimator: fdr.DefaultEstimatorConfig()},
		Pi0: fdr.Pi0Estimate{
			Pi0:       0.8,
			Lambda:    []float64{0.2, 0.4, 0.6, 0.8},
			Pi0Lambda: []float64{0.9, 0.85, 0.8, 0.8},
			Pi0Smooth: []float64{0.88, 0.84, 0.81, 0.8},
		},
		PValues:  []float64{0.01, 0.3},
		QValues:  []float64{0.016, 0.24},
		LFDR:     []float64{0.1, 0.9},
		Warnings: []fdr.Warning{{Code: fdr.WarningNumericInstability, Message: "stabilized", Count: 1}},
	})
	run := fdr.NewRun("screen", result)
	run.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return run
}

func TestRunRecord_RoundTrip(t *testing.T) {
	run := sampleRun()

	rec, err := toRecord(run)
	require.NoError(t, err)
	assert.Equal(t, run.ID.String(), rec.ID)
	assert.Equal(t, 2, rec.NumTests)
	assert.Equal(t, 1, rec.NumSignificant)
	assert.True(t, rec.PFDR)
	assert.Equal(t, sql.NullFloat64{Float64: 0.05, Valid: true}, rec.FDRLevel)
	assert.True(t, json.Valid([]byte(rec.Params)))

	back, err := rec.toRun()
	require.NoError(t, err)

	assert.Equal(t, run.ID, back.ID)
	assert.Equal(t, run.Name, back.Name)
	assert.Equal(t, run.CreatedAt, back.CreatedAt)
	assert.Equal(t, run.Result.Params(), back.Result.Params())
	assert.Equal(t, run.Result.Pi0Estimate(), back.Result.Pi0Estimate())
	assert.Equal(t, run.Result.QValues(), back.Result.QValues())
	assert.Equal(t, run.Result.LFDR(), back.Result.LFDR())
	assert.Equal(t, []bool{true, false}, back.Result.Significant())
	assert.Equal(t, run.Result.Warnings(), back.Result.Warnings())
}

func TestRunRecord_AbsentVectorsStayNil(t *testing.T) {
	result := fdr.NewResult(fdr.ResultParts{
		Pi0:     fdr.Pi0Estimate{Pi0: 1},
		PValues: []float64{0.5},
		QValues: []float64{0.5},
	})

	rec, err := toRecord(fdr.NewRun("plain", result))
	require.NoError(t, err)
	assert.False(t, rec.FDRLevel.Valid)
	assert.Nil(t, rec.LFDR)
	assert.Nil(t, rec.Pi0Smooth)

	back, err := rec.toRun()
	require.NoError(t, err)
	assert.Nil(t, back.Result.LFDR())
	assert.Nil(t, back.Result.Significant())
	assert.Nil(t, back.Result.Lambda())
}
