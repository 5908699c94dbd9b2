// Package config holds the eventpulse configuration: where the snapshot
// lives, how the watcher behaves, how surveys are scored, and how logging is
// set up. Configuration loads from YAML with environment overrides; a
// missing file yields defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"eventpulse/internal/survey"
)

// Config holds all eventpulse configuration.
type Config struct {
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Scoring  survey.Config  `yaml:"scoring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SnapshotConfig locates the snapshot file and tunes the reload watcher.
type SnapshotConfig struct {
	Path     string `yaml:"path"`
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the built-in defaults, including the deployed survey
// questionnaire and brand-variant list.
func DefaultConfig() *Config {
	return &Config{
		Snapshot: SnapshotConfig{
			Path:     "data/snapshot.json",
			Debounce: "500ms",
		},
		Scoring: survey.DefaultConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file returns the
// defaults; a malformed one is an error. Environment variables override the
// file afterwards.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating directories as
// needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("EVENTPULSE_SNAPSHOT"); path != "" {
		c.Snapshot.Path = path
	}
	if d := os.Getenv("EVENTPULSE_DEBOUNCE"); d != "" {
		c.Snapshot.Debounce = d
	}
	if level := os.Getenv("EVENTPULSE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if threshold := os.Getenv("EVENTPULSE_TOP_BOX"); threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			c.Scoring.TopBoxThreshold = v
		}
	}
}

// DebounceDuration parses the watcher debounce, falling back to the default
// on a malformed value.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Snapshot.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
