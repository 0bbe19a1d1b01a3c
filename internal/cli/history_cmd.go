// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// runHistory lists or searches the local conversation mirror. With --refresh
// (or on first use) the mirror is rebuilt from the server; otherwise the
// command works offline.
func (app *App) runHistory(parser *ArgParser) error {
	if app.History == nil {
		return fmt.Errorf("local history is disabled (history.enabled = false)")
	}

	if parser.BoolFlag("refresh") {
		if err := app.refreshHistoryMirror(); err != nil {
			return err
		}
	}

	term := strings.TrimSpace(strings.Join(parser.PositionalFrom(1), " "))
	if term != "" {
		return app.searchHistory(term, parser.FlagIntOrDefault("limit", 20))
	}

	convs, err := app.History.Conversations()
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Fprintln(app.Stdout, "no cached conversations; try: riverchat history --refresh")
		return nil
	}

	for _, conv := range convs {
		updated := ""
		if !conv.UpdatedAt.IsZero() {
			updated = conv.UpdatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(app.Stdout, "%4d  %-40s %-5s %s\n", conv.ID, conv.GetTitle(), conv.Mode, updated)
	}
	return nil
}

// searchHistory prints cached messages matching the term.
func (app *App) searchHistory(term string, limit int) error {
	results, err := app.History.Search(term, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(app.Stdout, "no matches for %q\n", term)
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(app.Stdout, "[%d] %s (%s): %s\n", r.ConversationID, r.Title, r.Role, r.Snippet)
	}
	return nil
}

// refreshHistoryMirror re-mirrors all server conversations and messages.
func (app *App) refreshHistoryMirror() error {
	identity, ok := app.Store.Identity()
	if !ok {
		return fmt.Errorf("not logged in; run: riverchat login")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	convs, err := app.Client.ListConversations(ctx, identity.ID)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	if err := app.History.SyncConversations(convs); err != nil {
		return err
	}

	for _, conv := range convs {
		msgs, err := app.Client.ListMessages(ctx, conv.ID)
		if err != nil {
			app.Logger.Printf("cli: mirror of conversation %d failed: %v", conv.ID, err)
			continue
		}
		if err := app.History.SyncMessages(conv.ID, msgs); err != nil {
			return err
		}
	}

	fmt.Fprintf(app.Stdout, "mirrored %d conversations\n", len(convs))
	return nil
}

// mirrorActiveConversation best-effort syncs the active conversation into the
// local cache after an interactive session.
func (app *App) mirrorActiveConversation() {
	if app.History == nil {
		return
	}
	id := app.Engine.ActiveConversation()
	if id == 0 {
		return
	}
	// The conversation row must exist before its messages can be written.
	if convs := app.Engine.Conversations(); len(convs) > 0 {
		if err := app.History.SyncConversations(convs); err != nil {
			app.Logger.Printf("cli: history conversation sync failed: %v", err)
		}
	}
	if err := app.History.SyncMessages(id, app.Engine.Messages()); err != nil {
		app.Logger.Printf("cli: history sync of conversation %d failed: %v", id, err)
	}
}
