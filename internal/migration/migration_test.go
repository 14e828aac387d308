package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"goqvalue/internal"
)

func TestStatements_CoverRunColumns(t *testing.T) {
	runner := NewRunner(internal.NopLogger())
	stmts := runner.Statements()

	assert.Equal(t, "1.0.0", runner.Version())
	assert.Len(t, stmts, 3)
	for _, col := range []string{"id UUID", "pvalues DOUBLE PRECISION[]", "params JSONB", "fdr_level DOUBLE PRECISION"} {
		assert.Contains(t, stmts[0], col)
	}
	for _, stmt := range stmts {
		assert.True(t, strings.Contains(stmt, "IF NOT EXISTS"), stmt)
	}
}

var _ Migrator = (*MigrationRunner)(nil)
