package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/pipeline"
	"github.com/ppiankov/crowdgen/internal/store"
)

func TestWriteDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".crowdgen")

	path, err := writeDefaultConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, *model.DefaultConfig(), cfg)

	_, err = writeDefaultConfig(dir)
	assert.Error(t, err, "existing file is not overwritten")
}

func TestLoadConfig_File(t *testing.T) {
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
	})

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "generation:\n  count: 77\n  workers: 2\noutput:\n  merge: all.csv\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfgFile = path
	initConfig()
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 77, cfg.Generation.Count)
	assert.Equal(t, 2, cfg.Generation.Workers)
	assert.Equal(t, "all.csv", cfg.Output.Merge)
	assert.Equal(t, int64(42), cfg.Generation.Seed, "unset keys keep defaults")
	assert.Equal(t, "./dataset", cfg.Output.Dir)
}

func TestGroupByDomain(t *testing.T) {
	catalog, err := domain.Builtin()
	require.NoError(t, err)
	crowd, err := catalog.Get("crowd")
	require.NoError(t, err)
	queue, err := catalog.Get("queue")
	require.NoError(t, err)

	rows := []model.Sample{
		{Input: "q1", Domain: queue.Label},
		{Input: "c1", Domain: crowd.Label},
		{Input: "x", Domain: "날씨 안내"},
		{Input: "q2", Domain: queue.Label},
	}

	groups, unknown := groupByDomain(catalog, rows)
	require.Len(t, groups, 2)
	assert.Equal(t, "crowd", groups[0].domain.Key, "catalog order")
	assert.Len(t, groups[0].rows, 1)
	assert.Equal(t, "queue", groups[1].domain.Key)
	assert.Equal(t, []string{"q1", "q2"}, []string{groups[1].rows[0].Input, groups[1].rows[1].Input})
	assert.Equal(t, map[string]int{"날씨 안내": 1}, unknown)
}

func TestCommands_GenerateValidateSplit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	out := filepath.Join(dir, "dataset")
	merged := filepath.Join(dir, "all.csv")
	db := filepath.Join(dir, "runs.db")

	rootCmd.SetArgs([]string{
		"generate", "crowd", "queue",
		"--count", "40", "--seed", "9",
		"--out", out, "--merge", merged, "--db", db,
		"--json", filepath.Join(dir, "report.json"),
	})
	require.NoError(t, Execute(t.Context()))

	for _, key := range []string{"crowd", "queue"} {
		rows, err := pipeline.ReadFile(filepath.Join(out, key+".csv"))
		require.NoError(t, err)
		assert.Len(t, rows, 40, key)
	}
	rows, err := pipeline.ReadFile(merged)
	require.NoError(t, err)
	assert.Len(t, rows, 80)
	assert.FileExists(t, filepath.Join(dir, "report.json"))

	st, err := store.Open(db)
	require.NoError(t, err)
	n, err := st.CountRows("samples")
	require.NoError(t, err)
	assert.Equal(t, 80, n)
	runs, err := st.Runs(t.Context())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NoError(t, st.Close())

	showMD := filepath.Join(dir, "run.md")
	rootCmd.SetArgs([]string{"runs", "show", runs[0].ID, "--db", db, "--strict", "--md", showMD})
	require.NoError(t, Execute(t.Context()))
	md, err := os.ReadFile(showMD)
	require.NoError(t, err)
	assert.Contains(t, string(md), "군중 밀집 및 체류 감지")
	assert.Contains(t, string(md), "줄 서기 및 대기열 정렬 상태 감지")

	rootCmd.SetArgs([]string{"runs", "show", "no-such-run", "--db", db})
	assert.Error(t, Execute(t.Context()))

	rootCmd.SetArgs([]string{"validate", merged, "--strict"})
	require.NoError(t, Execute(t.Context()))

	rootCmd.SetArgs([]string{"split", merged, "--ratio", "0.75"})
	require.NoError(t, Execute(t.Context()))

	train, err := pipeline.ReadFile(filepath.Join(dir, "all_train.csv"))
	require.NoError(t, err)
	valid, err := pipeline.ReadFile(filepath.Join(dir, "all_valid.csv"))
	require.NoError(t, err)
	assert.Len(t, train, 60)
	assert.Len(t, valid, 20)

	rootCmd.SetArgs([]string{"generate", "crowd", "--count=-3"})
	err = Execute(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sample count -3")
}
