// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the riverchat command line interface.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jeranaias/riverchat-tui/internal/api"
	"github.com/jeranaias/riverchat-tui/internal/config"
	"github.com/jeranaias/riverchat-tui/internal/history"
	"github.com/jeranaias/riverchat-tui/internal/session"
	"github.com/jeranaias/riverchat-tui/internal/transcript"
	"github.com/jeranaias/riverchat-tui/internal/ui/chat"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// App bundles the wired subsystems the commands operate on.
type App struct {
	Config  *config.Config
	Store   *session.Store
	Client  *api.Client
	Engine  *transcript.Engine
	History *history.Cache // nil when the local cache is disabled
	Logger  *log.Logger

	// ConfigReloads carries configs reloaded by the file watcher; nil
	// disables live reload in the TUI.
	ConfigReloads <-chan *config.Config

	Stdout io.Writer
	Stderr io.Writer
}

const usageText = `riverchat - terminal client for the riverchat assistant

Usage:
  riverchat                    Start the chat TUI (default)
  riverchat chat [--plain]     Interactive chat (--plain for a line REPL)
  riverchat ask "question"     Ask a single question and exit
  riverchat login              Log in and store the session
  riverchat logout             Clear the stored session
  riverchat whoami             Show the active session
  riverchat history [term]     List or search cached conversations
  riverchat upload pdf FILE    Ingest a PDF into the knowledge base
  riverchat upload image FILE  Upload an image for the agent
  riverchat config [show|set]  Configuration management
  riverchat version            Show version
  riverchat help               Show this help

Flags:
  --mode chat|agent   Answering pipeline for new conversations (ask/chat)
  --no-markdown       Disable markdown rendering (ask)
  --refresh           Re-mirror server history before listing (history)

Environment:
  RIVERCHAT_SERVER_URL, RIVERCHAT_MODE, RIVERCHAT_THEME override config.
`

// Run parses arguments and dispatches to a command handler. It returns the
// process exit code.
func Run(app *App, args []string) int {
	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}

	parser := NewArgParser(args)

	var err error
	switch parser.Subcommand() {
	case "", "chat":
		if parser.BoolFlag("plain") {
			err = app.runREPL(parser)
		} else {
			err = app.runTUI(parser)
		}
	case "ask":
		err = app.runAsk(parser)
	case "login":
		err = app.runLogin(parser)
	case "logout":
		err = app.runLogout()
	case "whoami":
		err = app.runWhoami()
	case "history":
		err = app.runHistory(parser)
	case "upload":
		err = app.runUpload(parser)
	case "config":
		err = app.runConfig(parser)
	case "version":
		fmt.Fprintf(app.Stdout, "riverchat %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		fmt.Fprint(app.Stdout, usageText)
	default:
		fmt.Fprintf(app.Stderr, "unknown command %q\n\n%s", parser.Subcommand(), usageText)
		return 2
	}

	if err != nil {
		fmt.Fprintf(app.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// runTUI starts the full-screen interface.
func (app *App) runTUI(parser *ArgParser) error {
	identity, ok := app.Store.Identity()
	if !ok {
		return fmt.Errorf("not logged in; run: riverchat login")
	}
	app.applyModeFlag(parser)
	return chat.Run(app.Engine, app.Config, identity, app.ConfigReloads)
}

// runWhoami prints the stored session identity.
func (app *App) runWhoami() error {
	identity, ok := app.Store.Identity()
	if !ok {
		fmt.Fprintln(app.Stdout, "not logged in")
		return nil
	}
	fmt.Fprintf(app.Stdout, "%s (%s) @ %s\n", identity.Username, identity.Role, app.Client.BaseURL())
	return nil
}

// applyModeFlag applies --mode to the engine for this invocation.
func (app *App) applyModeFlag(parser *ArgParser) {
	if mode := parser.Flag("mode"); mode != "" {
		app.Engine.SetDefaultMode(modelMode(mode))
	}
}
