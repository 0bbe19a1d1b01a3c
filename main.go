// riverchat - a terminal client for the riverchat assistant backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jeranaias/riverchat-tui/internal/api"
	"github.com/jeranaias/riverchat-tui/internal/cli"
	"github.com/jeranaias/riverchat-tui/internal/config"
	"github.com/jeranaias/riverchat-tui/internal/history"
	"github.com/jeranaias/riverchat-tui/internal/session"
	"github.com/jeranaias/riverchat-tui/internal/transcript"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	logger, closeLog := newLogger()
	defer closeLog()

	appDir, err := config.AppDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// A broken session file degrades to logged-out, never a crash.
	store := session.NewStore(appDir)
	store.Rehydrate()

	client := api.NewClient(cfg.ServerURL, store.Token)
	engine := transcript.NewEngine(client, store, logger)
	engine.SetDefaultMode(cfg.Mode())

	var cache *history.Cache
	if cfg.History.Enabled {
		if path, err := cfg.HistoryPath(); err == nil {
			if cache, err = history.Open(path); err != nil {
				logger.Printf("main: history cache unavailable: %v", err)
				cache = nil
			}
		}
	}
	if cache != nil {
		defer cache.Close()
	}

	app := &cli.App{
		Config:  cfg,
		Store:   store,
		Client:  client,
		Engine:  engine,
		History: cache,
		Logger:  logger,
	}
	app.ConfigReloads = watchConfig(logger, engine)

	return cli.Run(app, os.Args[1:])
}

// watchConfig starts the config file watcher for the process lifetime.
// Reloads adjust the engine's default mode immediately and are forwarded to
// the TUI, which adopts theme and rendering changes. Returns nil when
// watching is unavailable; the app then runs on the startup config.
func watchConfig(logger *log.Logger, engine *transcript.Engine) <-chan *config.Config {
	path, err := config.DefaultPath()
	if err != nil {
		return nil
	}

	reloads := make(chan *config.Config, 1)
	w := config.NewWatcher(path, logger, func(next *config.Config) {
		logger.Printf("main: config reloaded from %s", path)
		engine.SetDefaultMode(next.Mode())
		select {
		case reloads <- next:
		default:
			// A reload is already pending; the consumer will re-read soon.
		}
	})
	if err := w.Start(context.Background()); err != nil {
		logger.Printf("main: config watcher unavailable: %v", err)
		return nil
	}
	return reloads
}

// newLogger writes diagnostics to <app dir>/riverchat.log. The TUI owns the
// terminal, so logs never go to stderr unless the log file is unavailable.
func newLogger() (*log.Logger, func()) {
	dir, err := config.AppDir()
	if err != nil {
		return log.New(os.Stderr, "", log.LstdFlags), func() {}
	}

	f, err := os.OpenFile(filepath.Join(dir, "riverchat.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return log.New(os.Stderr, "", log.LstdFlags), func() {}
	}

	var w io.Writer = f
	return log.New(w, "", log.LstdFlags|log.Lshortfile), func() { f.Close() }
}
