package container

import (
	"context"

	"goqvalue/adapters/lfdr"
	"goqvalue/adapters/pi0"
	"goqvalue/adapters/postgres"
	"goqvalue/app"
	"goqvalue/internal"
	"goqvalue/internal/api"
	"goqvalue/internal/config"
	"goqvalue/internal/errors"
	"goqvalue/internal/migration"
	"goqvalue/internal/qvalue"
	"goqvalue/internal/testkit"
	"goqvalue/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	RunRepo ports.RunRepository

	// Estimation
	Pi0Estimator  *pi0.Estimator
	LFDREstimator *lfdr.Estimator
	Engine        *qvalue.Engine

	// Application
	Service *app.QValueService
	Handler *api.QValueHandler
}

// New creates a new dependency injection container with in-memory run storage
func New(cfg *config.Config, logger *internal.Logger) *Container {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	c := &Container{Config: cfg, Logger: logger}

	c.Pi0Estimator = pi0.NewEstimator(logger)
	c.LFDREstimator = lfdr.NewEstimator(logger)
	c.Engine = qvalue.NewEngine(c.Pi0Estimator, c.LFDREstimator, logger)

	c.setRepository(testkit.NewInMemoryRunRepository())
	return c
}

func (c *Container) setRepository(repo ports.RunRepository) {
	c.RunRepo = repo
	c.Service = app.NewQValueService(c.Engine, repo, c.Config.EstimatorConfig(), c.Config.Batch.Concurrency, c.Logger)
	c.Handler = api.NewQValueHandler(c.Service, c.Logger)
}

// InitWithDatabase migrates the schema and switches run storage to PostgreSQL
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if err := migration.NewRunner(c.Logger).Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.setRepository(postgres.NewRunRepository(db))
	c.Logger.Info("Container initialized with database connection")
	return nil
}

// Shutdown releases infrastructure resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
