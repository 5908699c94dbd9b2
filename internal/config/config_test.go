package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "data/snapshot.json", cfg.Snapshot.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 4.0, cfg.Scoring.TopBoxThreshold)
	assert.NotEmpty(t, cfg.Scoring.BrandVariants)
	assert.Equal(t, "1.1 (Sim)", cfg.Scoring.Questions.UnaidedRecall.Prefix)
	assert.Len(t, cfg.Scoring.Questions.Aspects, 3)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Snapshot.Path, cfg.Snapshot.Path)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
snapshot:
  path: /srv/event/snapshot.json
  debounce: 2s
logging:
  level: debug
scoring:
  top_box_threshold: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/event/snapshot.json", cfg.Snapshot.Path)
	assert.Equal(t, 2*time.Second, cfg.DebounceDuration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5.0, cfg.Scoring.TopBoxThreshold)
	// Untouched sections keep their defaults.
	assert.NotEmpty(t, cfg.Scoring.BrandVariants)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EVENTPULSE_SNAPSHOT", "/tmp/env.json")
	t.Setenv("EVENTPULSE_LOG_LEVEL", "warn")
	t.Setenv("EVENTPULSE_TOP_BOX", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.json", cfg.Snapshot.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 3.0, cfg.Scoring.TopBoxThreshold)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Snapshot.Path = "elsewhere.json"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "elsewhere.json", loaded.Snapshot.Path)
	assert.Equal(t, cfg.Scoring.Questions, loaded.Scoring.Questions)
}

func TestDebounceDurationFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Snapshot.Debounce = "not a duration"
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceDuration())
}
