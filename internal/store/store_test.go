package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/pipeline"
)

func generate(t *testing.T, count int, keys ...string) []*pipeline.DomainResult {
	t.Helper()
	cat, err := domain.Builtin()
	require.NoError(t, err)
	domains, err := cat.Select(keys)
	require.NoError(t, err)

	cfg := model.DefaultConfig()
	cfg.Generation.Count = count
	p := pipeline.NewPipeline(cfg, nil)

	var out []*pipeline.DomainResult
	for _, d := range domains {
		res, err := p.Generate(context.Background(), d)
		require.NoError(t, err)
		out = append(out, res)
	}
	return out
}

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "db", "crowdgen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStore_SaveRun(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	results := generate(t, 20, "crowd", "heat")

	id, err := st.SaveRun(ctx, 42, 20, results)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	for table, want := range map[string]int{"runs": 1, "samples": 40, "reports": 2} {
		n, err := st.CountRows(table)
		require.NoError(t, err)
		assert.Equal(t, want, n, table)
	}
}

func TestStore_Runs(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()

	runs, err := st.Runs(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = st.SaveRun(ctx, 1, 5, generate(t, 5, "fire"))
	require.NoError(t, err)
	_, err = st.SaveRun(ctx, 2, 10, generate(t, 10, "queue", "movement"))
	require.NoError(t, err)

	runs, err = st.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	bySeed := map[int64]Run{}
	for _, r := range runs {
		bySeed[r.Seed] = r
		assert.False(t, r.CreatedAt.IsZero())
	}
	assert.Equal(t, []string{"fire"}, bySeed[1].Domains)
	assert.Equal(t, 5, bySeed[1].Samples)
	assert.Equal(t, []string{"queue", "movement"}, bySeed[2].Domains)
	assert.Equal(t, 20, bySeed[2].Samples)
	assert.Equal(t, 10, bySeed[2].Count)
}

func TestStore_Results(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	results := generate(t, 30, "crowd", "ppe")

	id, err := st.SaveRun(ctx, 42, 30, results)
	require.NoError(t, err)

	got, err := st.Results(ctx, id, "ppe")
	require.NoError(t, err)
	want := results[1].Results
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, want[i].Sample, got[i].Sample)
		assert.Equal(t, want[i].Record.Tier, got[i].Record.Tier)
		assert.Equal(t, want[i].Record.Measured, got[i].Record.Measured)
		assert.Equal(t, want[i].Record.Baseline, got[i].Record.Baseline)
		assert.Equal(t, want[i].ValueText, got[i].ValueText)
	}

	none, err := st.Results(ctx, "missing", "ppe")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crowdgen.db")
	ctx := context.Background()

	st, err := Open(path)
	require.NoError(t, err)
	_, err = st.SaveRun(ctx, 42, 3, generate(t, 3, "fall"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	runs, err := st.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
