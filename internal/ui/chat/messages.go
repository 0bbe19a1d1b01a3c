// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat interface.
// The transcript engine runs outside the Bubble Tea loop; its callback pushes
// EngineUpdatedMsg into the program, and every mutation command reports back
// with a typed result message.
package chat

import "github.com/jeranaias/riverchat-tui/internal/config"

// =============================================================================
// ENGINE MESSAGES
// =============================================================================

// EngineUpdatedMsg signals that the transcript engine state changed and the
// view should re-read it. Sent from the engine's change callback.
type EngineUpdatedMsg struct{}

// SubmitResultMsg reports the outcome of a message submission.
type SubmitResultMsg struct {
	Err error
}

// ConversationSelectedMsg reports the outcome of loading a conversation.
type ConversationSelectedMsg struct {
	ID  int64
	Err error
}

// ConversationDeletedMsg reports the outcome of a delete.
type ConversationDeletedMsg struct {
	ID  int64
	Err error
}

// ConversationRenamedMsg reports the outcome of a rename.
type ConversationRenamedMsg struct {
	ID  int64
	Err error
}

// ConversationsRefreshedMsg reports the outcome of a sidebar refresh.
type ConversationsRefreshedMsg struct {
	Err error
}

// =============================================================================
// UI MESSAGES
// =============================================================================

// StatusMsg shows a transient message in the status bar.
type StatusMsg struct {
	Text string
}

// ClearStatusMsg clears the transient status message.
type ClearStatusMsg struct{}

// ConfigReloadedMsg delivers a config reloaded from disk by the file
// watcher while the program is running.
type ConfigReloadedMsg struct {
	Config *config.Config
}
