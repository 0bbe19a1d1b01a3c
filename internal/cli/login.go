// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/jeranaias/riverchat-tui/internal/api"
)

// loginTimeout bounds the login round-trip.
const loginTimeout = 15 * time.Second

// runLogin authenticates against the backend and persists the session.
//
// Username comes from --user or an interactive prompt; the password is
// always read without echo.
func (app *App) runLogin(parser *ArgParser) error {
	username := parser.Flag("user")
	if username == "" {
		fmt.Fprint(app.Stdout, "Username: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}

	fmt.Fprint(app.Stdout, "Password: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(app.Stdout)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	resp, err := app.Client.Login(ctx, username, string(passwordBytes))
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return fmt.Errorf("login failed: incorrect username or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	identity := resp.User
	identity.APIBaseURL = app.Client.BaseURL()
	if err := app.Store.SetSession(identity, resp.AccessToken); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	fmt.Fprintf(app.Stdout, "Logged in as %s\n", identity.Username)
	return nil
}

// runLogout clears the stored session.
func (app *App) runLogout() error {
	if err := app.Store.ClearSession(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Fprintln(app.Stdout, "Logged out")
	return nil
}
