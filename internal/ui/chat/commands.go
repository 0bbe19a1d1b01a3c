// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/riverchat-tui/internal/transcript"
)

// =============================================================================
// ENGINE COMMANDS
// =============================================================================

// requestTimeout bounds the non-streaming engine calls issued by the UI.
const requestTimeout = 30 * time.Second

// submitCmd sends a user message through the engine. The engine blocks until
// the stream finishes, so this command lives on its own goroutine for the
// whole streaming session; progress reaches the UI via the change callback.
func submitCmd(engine *transcript.Engine, text string) tea.Cmd {
	return func() tea.Msg {
		err := engine.SubmitUserMessage(context.Background(), text)
		return SubmitResultMsg{Err: err}
	}
}

// selectConversationCmd loads a conversation into the transcript.
func selectConversationCmd(engine *transcript.Engine, id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := engine.SelectConversation(ctx, id)
		return ConversationSelectedMsg{ID: id, Err: err}
	}
}

// refreshConversationsCmd reloads the sidebar from the server.
func refreshConversationsCmd(engine *transcript.Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := engine.RefreshConversations(ctx)
		return ConversationsRefreshedMsg{Err: err}
	}
}

// deleteConversationCmd deletes a conversation server-side.
func deleteConversationCmd(engine *transcript.Engine, id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := engine.Delete(ctx, id)
		return ConversationDeletedMsg{ID: id, Err: err}
	}
}

// renameConversationCmd renames a conversation.
func renameConversationCmd(engine *transcript.Engine, id int64, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := engine.Rename(ctx, id, title)
		return ConversationRenamedMsg{ID: id, Err: err}
	}
}
