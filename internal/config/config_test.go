// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.DefaultMode != "chat" {
		t.Errorf("expected default mode chat, got %q", cfg.DefaultMode)
	}
	if !cfg.UI.Markdown {
		t.Error("expected markdown rendering on by default")
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("missing config file should load defaults: %v", err)
	}
	if cfg.ServerURL != DefaultConfig().ServerURL {
		t.Errorf("expected default server URL, got %q", cfg.ServerURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
server_url = "https://chat.example.com"
default_mode = "agent"

[ui]
theme = "mono"
markdown = false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.ServerURL != "https://chat.example.com" {
		t.Errorf("server_url not applied: %q", cfg.ServerURL)
	}
	if cfg.DefaultMode != "agent" {
		t.Errorf("default_mode not applied: %q", cfg.DefaultMode)
	}
	if cfg.UI.Theme != "mono" || cfg.UI.Markdown {
		t.Errorf("ui section not applied: %+v", cfg.UI)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RIVERCHAT_SERVER_URL", "http://10.0.0.5:8006")
	t.Setenv("RIVERCHAT_MODE", "agent")
	t.Setenv("RIVERCHAT_NO_MARKDOWN", "true")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.ServerURL != "http://10.0.0.5:8006" {
		t.Errorf("env server URL not applied: %q", cfg.ServerURL)
	}
	if cfg.DefaultMode != "agent" {
		t.Errorf("env mode not applied: %q", cfg.DefaultMode)
	}
	if cfg.UI.Markdown {
		t.Error("RIVERCHAT_NO_MARKDOWN should disable markdown")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative server url", func(c *Config) { c.ServerURL = "localhost:8006" }},
		{"bad scheme", func(c *Config) { c.ServerURL = "ftp://example.com" }},
		{"unknown mode", func(c *Config) { c.DefaultMode = "turbo" }},
		{"unknown theme", func(c *Config) { c.UI.Theme = "neon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.ServerURL = "https://chat.example.com"
	cfg.UI.ShowReferences = false
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.ServerURL != cfg.ServerURL {
		t.Errorf("server URL lost in round trip: %q", loaded.ServerURL)
	}
	if loaded.UI.ShowReferences {
		t.Error("show_references lost in round trip")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "server_url") {
		t.Error("saved file is not TOML")
	}
}

func TestHistoryPathExplicit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.History.Path = "/tmp/custom.db"
	got, err := cfg.HistoryPath()
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/custom.db" {
		t.Errorf("explicit history path ignored: %q", got)
	}
}
