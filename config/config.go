// Package config handles reading ~/.jobtrack/config.yaml plus environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for ~/.jobtrack/config.yaml. Every
// field has a working default so the file is optional.
type Config struct {
	// StateFile is the path of the persisted state document.
	StateFile string `yaml:"state_file"`
	// ServerConfig is the path of the mcpServers launch configuration.
	ServerConfig string `yaml:"server_config"`
	// RecordServer is the logical server key of the record backend.
	RecordServer string         `yaml:"record_server"`
	Provider     ProviderConfig `yaml:"provider"`
	Driver       DriverConfig   `yaml:"driver"`
	LogLevel     string         `yaml:"log_level"` // debug | info | warn | error
}

// ProviderConfig selects and tunes the reasoning engine.
type ProviderConfig struct {
	Name        string  `yaml:"name"` // "anthropic" | "openai"
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// DriverConfig tunes the conversation loop.
type DriverConfig struct {
	MaxRounds       int `yaml:"max_rounds"`
	ToolTimeoutSecs int `yaml:"tool_timeout"`    // seconds
	ConnectTimeout  int `yaml:"connect_timeout"` // seconds
}

// ToolTimeoutDuration returns the per-call tool timeout.
func (c *Config) ToolTimeoutDuration() time.Duration {
	return time.Duration(c.Driver.ToolTimeoutSecs) * time.Second
}

// ConnectTimeoutDuration returns the session connect timeout.
func (c *Config) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.Driver.ConnectTimeout) * time.Second
}

const configDir = ".jobtrack"
const configFile = "config.yaml"

// Default returns the built-in configuration rooted at the user's home
// directory.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, configDir)
	return &Config{
		StateFile:    filepath.Join(base, "state.json"),
		ServerConfig: filepath.Join(base, "mcp_config.json"),
		RecordServer: "notion",
		Provider: ProviderConfig{
			Name:        "anthropic",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Driver: DriverConfig{
			MaxRounds:       10,
			ToolTimeoutSecs: 60,
			ConnectTimeout:  30,
		},
		LogLevel: "info",
	}
}

// Load reads the config file at path (or the default location when path is
// empty), overlays it onto the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, configDir, configFile)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults apply
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

// applyEnv overlays JOBTRACK_* environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("JOBTRACK_STATE_FILE"); v != "" {
		c.StateFile = v
	}
	if v := os.Getenv("JOBTRACK_SERVER_CONFIG"); v != "" {
		c.ServerConfig = v
	}
	if v := os.Getenv("JOBTRACK_RECORD_SERVER"); v != "" {
		c.RecordServer = v
	}
	if v := os.Getenv("JOBTRACK_PROVIDER"); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv("JOBTRACK_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("JOBTRACK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("JOBTRACK_MAX_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Driver.MaxRounds = n
		}
	}
}
