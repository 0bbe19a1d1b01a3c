// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// reloadTimeout leaves room for the debounce delay plus filesystem event
// latency on slow CI machines.
const reloadTimeout = 3 * time.Second

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func startWatcher(t *testing.T, path string) <-chan *Config {
	t.Helper()
	got := make(chan *Config, 4)
	w := NewWatcher(path, nil, func(c *Config) { got <- c })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return got
}

func TestWatcherReloadsOnRewrite(t *testing.T) {
	t.Setenv("RIVERCHAT_SERVER_URL", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfigFile(t, path, "server_url = \"http://localhost:8006\"\n")
	got := startWatcher(t, path)

	writeConfigFile(t, path, "server_url = \"http://example.com:9000\"\n")

	select {
	case cfg := <-got:
		if cfg.ServerURL != "http://example.com:9000" {
			t.Errorf("reloaded server_url = %q, want the rewritten value", cfg.ServerURL)
		}
	case <-time.After(reloadTimeout):
		t.Fatal("config rewrite did not trigger a reload")
	}
}

func TestWatcherSkipsInvalidIntermediateState(t *testing.T) {
	t.Setenv("RIVERCHAT_SERVER_URL", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfigFile(t, path, "server_url = \"http://localhost:8006\"\n")
	got := startWatcher(t, path)

	// A half-written file must not replace the running config.
	writeConfigFile(t, path, "server_url = \"http://example.co")

	select {
	case cfg := <-got:
		t.Fatalf("invalid file delivered a config: %+v", cfg)
	case <-time.After(2 * debounceDelay):
	}

	writeConfigFile(t, path, "server_url = \"http://example.com:9000\"\n")

	select {
	case cfg := <-got:
		if cfg.ServerURL != "http://example.com:9000" {
			t.Errorf("reloaded server_url = %q, want the recovered value", cfg.ServerURL)
		}
	case <-time.After(reloadTimeout):
		t.Fatal("valid rewrite after an invalid state did not reload")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	t.Setenv("RIVERCHAT_SERVER_URL", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFile(t, path, "server_url = \"http://localhost:8006\"\n")
	got := startWatcher(t, path)

	writeConfigFile(t, filepath.Join(dir, "other.toml"), "server_url = \"http://other:1\"\n")

	select {
	case cfg := <-got:
		t.Fatalf("sibling file write delivered a config: %+v", cfg)
	case <-time.After(2 * debounceDelay):
	}
}
