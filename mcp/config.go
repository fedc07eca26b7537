package mcp

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServerConfig describes how to launch one MCP server process. The JSON
// shape mirrors the conventional mcpServers configuration document.
type ServerConfig struct {
	Command              string            `json:"command"`
	Args                 []string          `json:"args,omitempty"`
	Env                  map[string]string `json:"env,omitempty"`
	Cwd                  string            `json:"cwd,omitempty"`
	Encoding             string            `json:"encoding,omitempty"`
	EncodingErrorHandler string            `json:"encoding_error_handler,omitempty"`
}

// serverDocument is the top-level shape of an mcpServers config file.
type serverDocument struct {
	Servers map[string]ServerConfig `json:"mcpServers"`
}

// LoadServerConfigs reads an mcpServers document and returns all entries
// with encoding defaults applied.
func LoadServerConfigs(path string) (map[string]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MCP config %s: %w", path, err)
	}

	var doc serverDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing MCP config %s: %w", path, err)
	}

	configs := make(map[string]ServerConfig, len(doc.Servers))
	for key, cfg := range doc.Servers {
		configs[key] = cfg.withDefaults()
	}

	return configs, nil
}

// LoadServerConfig reads an mcpServers document and returns the entry for
// the given logical server key.
func LoadServerConfig(path, key string) (ServerConfig, error) {
	configs, err := LoadServerConfigs(path)
	if err != nil {
		return ServerConfig{}, err
	}

	cfg, ok := configs[key]
	if !ok {
		return ServerConfig{}, fmt.Errorf("no MCP configuration for %q in %s", key, path)
	}

	if cfg.Command == "" {
		return ServerConfig{}, fmt.Errorf("MCP configuration for %q has no command", key)
	}

	return cfg, nil
}

// withDefaults fills the encoding fields the same way the conventional
// config loaders do. The stdio transport is byte oriented; the fields are
// retained for config compatibility.
func (c ServerConfig) withDefaults() ServerConfig {
	if c.Encoding == "" {
		c.Encoding = "utf-8"
	}
	if c.EncodingErrorHandler == "" {
		c.EncodingErrorHandler = "strict"
	}
	return c
}
