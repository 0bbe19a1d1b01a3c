// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// runConfig handles `config show`, `config set KEY VALUE` and
// `config provider`.
func (app *App) runConfig(parser *ArgParser) error {
	switch parser.Positional(1) {
	case "", "show":
		return app.showConfig()
	case "set":
		return app.setConfig(parser.Positional(2), parser.Positional(3))
	case "provider":
		return app.setProvider(parser)
	default:
		return fmt.Errorf("usage: riverchat config [show|set KEY VALUE|provider]")
	}
}

func (app *App) showConfig() error {
	cfg := app.Config
	fmt.Fprintf(app.Stdout, "server_url    = %s\n", cfg.ServerURL)
	fmt.Fprintf(app.Stdout, "default_mode  = %s\n", cfg.DefaultMode)
	fmt.Fprintf(app.Stdout, "ui.theme      = %s\n", cfg.UI.Theme)
	fmt.Fprintf(app.Stdout, "ui.markdown   = %s\n", strconv.FormatBool(cfg.UI.Markdown))
	fmt.Fprintf(app.Stdout, "ui.references = %s\n", strconv.FormatBool(cfg.UI.ShowReferences))
	fmt.Fprintf(app.Stdout, "history       = %s\n", strconv.FormatBool(cfg.History.Enabled))
	return nil
}

// setConfig mutates one key, validates, and saves atomically.
func (app *App) setConfig(key, value string) error {
	if key == "" || value == "" {
		return fmt.Errorf("usage: riverchat config set KEY VALUE")
	}

	cfg := app.Config
	switch key {
	case "server_url":
		cfg.ServerURL = value
	case "default_mode":
		cfg.DefaultMode = value
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.markdown":
		cfg.UI.Markdown = value == "true"
	case "ui.references":
		cfg.UI.ShowReferences = value == "true"
	case "history":
		cfg.History.Enabled = value == "true"
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintf(app.Stdout, "%s = %s\n", key, value)
	return nil
}

// setProvider pushes upstream model provider credentials to the backend.
func (app *App) setProvider(parser *ArgParser) error {
	identity, ok := app.Store.Identity()
	if !ok {
		return fmt.Errorf("not logged in; run: riverchat login")
	}

	baseURL := parser.Flag("base-url")
	apiKey := parser.Flag("api-key")
	if baseURL == "" && apiKey == "" {
		return fmt.Errorf("usage: riverchat config provider --base-url URL --api-key KEY")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.Client.UpdateProviderConfig(ctx, identity.ID, baseURL, apiKey); err != nil {
		return fmt.Errorf("failed to update provider config: %w", err)
	}
	fmt.Fprintln(app.Stdout, "provider configuration updated")
	return nil
}
