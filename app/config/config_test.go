package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/knachinen/darkmaptour-webscraping/internal/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultMatchesMatcherDefaults(t *testing.T) {
	assert.Equal(t, matcher.DefaultConfig(), Default().Matcher.ToMatcherConfig())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
matcher:
  thresholds:
    fuzzy_match: 75
batch:
  workers: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Matcher.Thresholds.FuzzyMatch)
	assert.Equal(t, 90, cfg.Matcher.Thresholds.StrongFullMatch)
	assert.Equal(t, 20.0, cfg.Matcher.Bonuses.LV0Composite)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 10, cfg.Batch.CheckpointEvery)
	assert.Equal(t, cfg, C)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MATCHER_REGION_THRESHOLD", "70")
	t.Setenv("MATCHER_SUFFIXES", "특별시,광역시")
	t.Setenv("BATCH_CHECKPOINT_DIR", "/var/tmp/ckpt")

	cfg, err := Load(writeConfig(t, "matcher: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, 70, cfg.Matcher.Thresholds.Region)
	assert.Equal(t, []string{"특별시", "광역시"}, cfg.Matcher.Suffixes)
	assert.Equal(t, "/var/tmp/ckpt", cfg.Batch.CheckpointDir)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "matcher:\n  thresholds:\n    fuzzy_match: 120\n"))
	assert.ErrorIs(t, err, matcher.ErrInvalidConfig)

	t.Setenv("BATCH_WORKERS", "many")
	_, err = Load(writeConfig(t, "batch: {}\n"))
	assert.Error(t, err)
}

func TestRepoConfigFileLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "matcher.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
