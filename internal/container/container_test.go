package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goqvalue/app"
	"goqvalue/internal"
	"goqvalue/internal/config"
	"goqvalue/internal/testkit"
)

func TestNew_WiresInMemoryStack(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cfg, err := config.Load()
	require.NoError(t, err)

	c := New(cfg, internal.NopLogger())
	assert.IsType(t, &testkit.InMemoryRunRepository{}, c.RunRepo)
	require.NotNil(t, c.Service)
	require.NotNil(t, c.Handler)

	p, _ := testkit.NewPValueGenerator(testkit.DefaultPValueConfig()).Generate()
	run, err := c.Service.Analyze(context.Background(), app.AnalyzeRequest{Name: "wired", PValues: p})
	require.NoError(t, err)
	assert.Len(t, run.Result.LFDR(), len(p))

	stored, err := c.Service.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, stored.ID)

	assert.NoError(t, c.Shutdown(context.Background()))
}
