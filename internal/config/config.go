// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for riverchat.
//
// Configuration sources, in order of precedence:
//   - RIVERCHAT_* environment variables
//   - ~/.riverchat/config.toml
//   - Built-in defaults
//
// A .env file in the working directory is loaded first, so development
// setups can override the environment without exporting variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/riverchat-tui/internal/model"
	"github.com/jeranaias/riverchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete riverchat configuration.
type Config struct {
	// ServerURL is the chat backend address.
	ServerURL string `toml:"server_url"`

	// DefaultMode is the answering pipeline for new conversations:
	// "chat" or "agent".
	DefaultMode string `toml:"default_mode"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// History cache configuration
	History HistoryConfig `toml:"history"`
}

// UIConfig contains presentation options.
type UIConfig struct {
	// Theme selects the color theme: "river" (default) or "mono".
	Theme string `toml:"theme"`
	// Markdown enables glamour rendering of assistant messages.
	Markdown bool `toml:"markdown"`
	// ShowReferences enables the knowledge-base reference panel.
	ShowReferences bool `toml:"show_references"`
}

// HistoryConfig contains the local conversation cache options.
type HistoryConfig struct {
	// Enabled turns the local SQLite mirror on.
	Enabled bool `toml:"enabled"`
	// Path is the cache database path (empty = <app dir>/history.db).
	Path string `toml:"path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   "http://localhost:8006",
		DefaultMode: string(model.ModeChat),
		UI: UIConfig{
			Theme:          "river",
			Markdown:       true,
			ShowReferences: true,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// AppDir returns the riverchat state directory (~/.riverchat), creating it
// if needed.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	dir := filepath.Join(home, ".riverchat")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}
	return dir, nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the default path, applying defaults and
// environment overrides. A missing config file is not an error.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	// Best-effort .env: absence is the normal case.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies RIVERCHAT_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RIVERCHAT_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("RIVERCHAT_MODE"); v != "" {
		c.DefaultMode = v
	}
	if v := os.Getenv("RIVERCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("RIVERCHAT_NO_MARKDOWN"); isTruthy(v) {
		c.UI.Markdown = false
	}
	if v := os.Getenv("RIVERCHAT_NO_HISTORY"); isTruthy(v) {
		c.History.Enabled = false
	}
}

// isTruthy interprets common boolean environment values.
func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server_url %q: must be an absolute http(s) URL", c.ServerURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server_url scheme %q", u.Scheme)
	}

	if !model.Mode(c.DefaultMode).Valid() {
		return fmt.Errorf("invalid default_mode %q: must be chat or agent", c.DefaultMode)
	}

	switch c.UI.Theme {
	case "river", "mono":
	default:
		return fmt.Errorf("invalid theme %q: must be river or mono", c.UI.Theme)
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path atomically.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to an explicit path.
func (c *Config) SaveTo(path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// HistoryPath resolves the history database path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Mode returns the default conversation mode as a model type.
func (c *Config) Mode() model.Mode {
	return model.Mode(c.DefaultMode)
}
