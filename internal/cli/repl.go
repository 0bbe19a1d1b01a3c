// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/riverchat-tui/internal/config"
)

// runREPL is the line-oriented fallback interface for terminals where the
// full-screen TUI is unwanted (ssh sessions, scripting, screen readers).
func (app *App) runREPL(parser *ArgParser) error {
	identity, ok := app.Store.Identity()
	if !ok {
		return fmt.Errorf("not logged in; run: riverchat login")
	}
	app.applyModeFlag(parser)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := ""
	if dir, err := config.AppDir(); err == nil {
		historyPath = filepath.Join(dir, "repl_history")
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Fprintf(app.Stdout, "riverchat %s - logged in as %s. /help for commands, /quit to exit.\n",
		Version, identity.Username)

	if err := app.Engine.RefreshConversations(context.Background()); err != nil {
		app.Logger.Printf("cli: initial conversation refresh failed: %v", err)
	}

	for {
		input, err := line.Prompt("> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := app.handleREPLCommand(input); quit {
				break
			}
			continue
		}

		if err := app.Engine.SubmitUserMessage(context.Background(), input); err != nil {
			fmt.Fprintf(app.Stderr, "error: %v\n", err)
			continue
		}

		if answer := lastAssistantContent(app.Engine.Messages()); answer != nil {
			fmt.Fprintln(app.Stdout, app.renderAnswer(answer.Content, false))
			for _, ref := range answer.Metadata.References {
				fmt.Fprintf(app.Stdout, "  [source: %s]\n", ref.FileName)
			}
		}
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}

	app.mirrorActiveConversation()
	fmt.Fprintln(app.Stdout, "bye")
	return nil
}

// handleREPLCommand executes a slash command. Returns true to exit the loop.
func (app *App) handleREPLCommand(input string) bool {
	fields := strings.Fields(input)
	cmd := fields[0]
	ctx := context.Background()

	switch cmd {
	case "/quit", "/exit", "/q":
		return true

	case "/help":
		fmt.Fprint(app.Stdout, `Commands:
  /list              List conversations
  /switch N          Load conversation N
  /new               Start a new conversation
  /rename TITLE      Rename the active conversation
  /delete N          Delete conversation N
  /stop              Stop the current answer
  /quit              Exit
`)

	case "/list":
		if err := app.Engine.RefreshConversations(ctx); err != nil {
			fmt.Fprintf(app.Stderr, "error: %v\n", err)
			return false
		}
		active := app.Engine.ActiveConversation()
		for _, conv := range app.Engine.Conversations() {
			marker := " "
			if conv.ID == active {
				marker = "*"
			}
			fmt.Fprintf(app.Stdout, "%s %4d  %s (%s)\n", marker, conv.ID, conv.GetTitle(), conv.Mode)
		}

	case "/switch":
		if len(fields) < 2 {
			fmt.Fprintln(app.Stderr, "usage: /switch N")
			return false
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Fprintln(app.Stderr, "usage: /switch N")
			return false
		}
		if err := app.Engine.SelectConversation(ctx, id); err != nil {
			fmt.Fprintf(app.Stderr, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(app.Stdout, "switched to conversation %d (%d messages)\n", id, app.Engine.MessageCount())

	case "/new":
		if err := app.Engine.SelectConversation(ctx, 0); err != nil {
			fmt.Fprintf(app.Stderr, "error: %v\n", err)
		} else {
			fmt.Fprintln(app.Stdout, "new conversation")
		}

	case "/rename":
		title := strings.TrimSpace(strings.TrimPrefix(input, "/rename"))
		if err := app.Engine.Rename(ctx, app.Engine.ActiveConversation(), title); err != nil {
			fmt.Fprintf(app.Stderr, "error: %v\n", err)
		}

	case "/delete":
		if len(fields) < 2 {
			fmt.Fprintln(app.Stderr, "usage: /delete N")
			return false
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Fprintln(app.Stderr, "usage: /delete N")
			return false
		}
		if err := app.Engine.Delete(ctx, id); err != nil {
			fmt.Fprintf(app.Stderr, "error: %v\n", err)
		} else if app.History != nil {
			app.History.DeleteConversation(id)
		}

	case "/stop":
		app.Engine.CancelStream()

	default:
		fmt.Fprintf(app.Stderr, "unknown command %s (try /help)\n", cmd)
	}
	return false
}
