package migration

import (
	"context"

	"goqvalue/internal"
	"goqvalue/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *internal.Logger) *MigrationRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MigrationRunner{
		version: "1.0.0",
		logger:  logger,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create qvalue_runs table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	r.logger.Info("[migration] schema at version %s", r.version)
	return nil
}

// Statements returns the DDL executed by Run, in order
func (r *MigrationRunner) Statements() []string {
	return append([]string{runsTableDDL}, indexDDL...)
}

const runsTableDDL = `
	CREATE TABLE IF NOT EXISTS qvalue_runs (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		num_tests INTEGER NOT NULL,
		pi0 DOUBLE PRECISION NOT NULL,
		num_significant INTEGER NOT NULL DEFAULT 0,
		pfdr BOOLEAN NOT NULL DEFAULT false,
		fdr_level DOUBLE PRECISION,
		params JSONB NOT NULL,
		pvalues DOUBLE PRECISION[] NOT NULL,
		qvalues DOUBLE PRECISION[] NOT NULL,
		lfdr DOUBLE PRECISION[],
		lambda DOUBLE PRECISION[],
		pi0_lambda DOUBLE PRECISION[],
		pi0_smooth DOUBLE PRECISION[],
		warnings JSONB
	)
`

var indexDDL = []string{
	"CREATE INDEX IF NOT EXISTS idx_qvalue_runs_created_at ON qvalue_runs(created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_qvalue_runs_name ON qvalue_runs(name)",
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, runsTableDDL)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	for _, idxSQL := range indexDDL {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			r.logger.Warn("[migration] index creation failed: %v", err)
		}
	}
	return nil
}
