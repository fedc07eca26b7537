package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "notion", cfg.RecordServer)
	assert.Equal(t, "anthropic", cfg.Provider.Name)
	assert.Equal(t, 10, cfg.Driver.MaxRounds)
	assert.Equal(t, 60*time.Second, cfg.ToolTimeoutDuration())
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeoutDuration())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Contains(t, cfg.StateFile, ".jobtrack")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "notion", cfg.RecordServer)
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
state_file: /tmp/custom-state.json
record_server: workspace
provider:
  name: openai
  model: gpt-4o
driver:
  max_rounds: 5
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom-state.json", cfg.StateFile)
	assert.Equal(t, "workspace", cfg.RecordServer)
	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "gpt-4o", cfg.Provider.Model)
	assert.Equal(t, 5, cfg.Driver.MaxRounds)
	assert.Equal(t, "debug", cfg.LogLevel)

	// untouched fields keep their defaults
	assert.Equal(t, 60, cfg.Driver.ToolTimeoutSecs)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JOBTRACK_RECORD_SERVER", "workspace")
	t.Setenv("JOBTRACK_PROVIDER", "openai")
	t.Setenv("JOBTRACK_MAX_ROUNDS", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "workspace", cfg.RecordServer)
	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, 7, cfg.Driver.MaxRounds)
}

func TestLoad_InvalidMaxRoundsIgnored(t *testing.T) {
	t.Setenv("JOBTRACK_MAX_ROUNDS", "zero")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Driver.MaxRounds)
}
