package ports

import (
	"context"
	"time"

	"goqvalue/domain/core"
	"goqvalue/domain/fdr"
)

// RunRepository persists q-value runs
type RunRepository interface {
	SaveRun(ctx context.Context, run *fdr.Run) error
	GetRun(ctx context.Context, id core.RunID) (*fdr.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]RunSummary, error)
}

// RunSummary is the list view of a stored run
type RunSummary struct {
	ID             core.RunID `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	NumTests       int        `json:"num_tests" db:"num_tests"`
	Pi0            float64    `json:"pi0" db:"pi0"`
	NumSignificant int        `json:"num_significant" db:"num_significant"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
