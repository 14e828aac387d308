package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"goqvalue/domain/core"
	"goqvalue/domain/fdr"
	"goqvalue/internal/errors"
	"goqvalue/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// runRecord is one row of qvalue_runs
type runRecord struct {
	ID             string          `db:"id"`
	Name           string          `db:"name"`
	CreatedAt      time.Time       `db:"created_at"`
	NumTests       int             `db:"num_tests"`
	Pi0            float64         `db:"pi0"`
	NumSignificant int             `db:"num_significant"`
	PFDR           bool            `db:"pfdr"`
	FDRLevel       sql.NullFloat64 `db:"fdr_level"`
	Params         string          `db:"params"` // jsonb
	PValues        pq.Float64Array `db:"pvalues"`
	QValues        pq.Float64Array `db:"qvalues"`
	LFDR           pq.Float64Array `db:"lfdr"`
	Lambda         pq.Float64Array `db:"lambda"`
	Pi0Lambda      pq.Float64Array `db:"pi0_lambda"`
	Pi0Smooth      pq.Float64Array `db:"pi0_smooth"`
	Warnings       string          `db:"warnings"` // jsonb
}

func toRecord(run *fdr.Run) (*runRecord, error) {
	result := run.Result
	params, err := json.Marshal(result.Params())
	if err != nil {
		return nil, errors.Wrap(err, "encode params")
	}
	warnings, err := json.Marshal(result.Warnings())
	if err != nil {
		return nil, errors.Wrap(err, "encode warnings")
	}

	rec := &runRecord{
		ID:             run.ID.String(),
		Name:           run.Name,
		CreatedAt:      run.CreatedAt,
		NumTests:       result.Len(),
		Pi0:            result.Pi0(),
		NumSignificant: result.NumSignificant(),
		PFDR:           result.Params().PFDR,
		Params:         string(params),
		PValues:        result.PValues(),
		QValues:        result.QValues(),
		LFDR:           result.LFDR(),
		Lambda:         result.Lambda(),
		Pi0Lambda:      result.Pi0Lambda(),
		Pi0Smooth:      result.Pi0Smooth(),
		Warnings:       string(warnings),
	}
	if level, ok := result.FDRLevel(); ok {
		rec.FDRLevel = sql.NullFloat64{Float64: level, Valid: true}
	}
	return rec, nil
}

func (rec *runRecord) toRun() (*fdr.Run, error) {
	var params fdr.Params
	if len(rec.Params) > 0 {
		if err := json.Unmarshal([]byte(rec.Params), &params); err != nil {
			return nil, errors.Wrap(err, "decode params")
		}
	}
	var warnings []fdr.Warning
	if len(rec.Warnings) > 0 {
		if err := json.Unmarshal([]byte(rec.Warnings), &warnings); err != nil {
			return nil, errors.Wrap(err, "decode warnings")
		}
	}

	result := fdr.NewResult(fdr.ResultParts{
		Params: params,
		Pi0: fdr.Pi0Estimate{
			Pi0:       rec.Pi0,
			Pi0Lambda: rec.Pi0Lambda,
			Lambda:    rec.Lambda,
			Pi0Smooth: rec.Pi0Smooth,
		},
		QValues:  rec.QValues,
		PValues:  rec.PValues,
		LFDR:     rec.LFDR,
		Warnings: warnings,
	})

	return &fdr.Run{
		ID:        core.RunID(rec.ID),
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		Result:    result,
	}, nil
}

// SaveRun inserts a run, replacing any row with the same id
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run *fdr.Run) error {
	rec, err := toRecord(run)
	if err != nil {
		return err
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO qvalue_runs (
			id, name, created_at, num_tests, pi0, num_significant, pfdr, fdr_level,
			params, pvalues, qvalues, lfdr, lambda, pi0_lambda, pi0_smooth, warnings
		) VALUES (
			:id, :name, :created_at, :num_tests, :pi0, :num_significant, :pfdr, :fdr_level,
			:params, :pvalues, :qvalues, :lfdr, :lambda, :pi0_lambda, :pi0_smooth, :warnings
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			num_tests = EXCLUDED.num_tests,
			pi0 = EXCLUDED.pi0,
			num_significant = EXCLUDED.num_significant,
			pfdr = EXCLUDED.pfdr,
			fdr_level = EXCLUDED.fdr_level,
			params = EXCLUDED.params,
			pvalues = EXCLUDED.pvalues,
			qvalues = EXCLUDED.qvalues,
			lfdr = EXCLUDED.lfdr,
			lambda = EXCLUDED.lambda,
			pi0_lambda = EXCLUDED.pi0_lambda,
			pi0_smooth = EXCLUDED.pi0_smooth,
			warnings = EXCLUDED.warnings
	`, rec)
	if err != nil {
		return errors.DatabaseError("failed to save run", err)
	}
	return nil
}

// GetRun loads one run with all of its vectors
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*fdr.Run, error) {
	var rec runRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, name, created_at, num_tests, pi0, num_significant, pfdr, fdr_level,
			params, pvalues, qvalues, lfdr, lambda, pi0_lambda, pi0_smooth, warnings
		FROM qvalue_runs
		WHERE id = $1
	`, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("run", id.String())
		}
		return nil, errors.DatabaseError("failed to load run", err)
	}
	return rec.toRun()
}

// ListRuns returns run summaries, newest first
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit, offset int) ([]ports.RunSummary, error) {
	query := `
		SELECT id, name, num_tests, pi0, num_significant, created_at
		FROM qvalue_runs
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	summaries := []ports.RunSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	return summaries, nil
}
