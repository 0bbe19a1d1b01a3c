// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/riverchat-tui/internal/api"
	"github.com/jeranaias/riverchat-tui/internal/model"
	"github.com/jeranaias/riverchat-tui/internal/transcript"
)

// statusDuration is how long transient status messages stay visible.
const statusDuration = 4 * time.Second

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EngineUpdatedMsg:
		m.refreshViewport()
		return m, nil

	case SubmitResultMsg:
		return m.handleSubmitResult(msg)

	case ConversationSelectedMsg:
		if msg.Err != nil {
			return m.showError(msg.Err)
		}
		m.followTail = true
		m.refreshViewport()
		return m, nil

	case ConversationsRefreshedMsg:
		if msg.Err != nil && !errors.Is(msg.Err, transcript.ErrUnauthenticated) {
			return m.showError(msg.Err)
		}
		m.clampSelection()
		return m, nil

	case ConversationDeletedMsg:
		if msg.Err != nil {
			return m.showError(msg.Err)
		}
		m.clampSelection()
		m.statusMsg = "Conversation deleted"
		m.refreshViewport()
		return m, clearStatusAfter(statusDuration)

	case ConversationRenamedMsg:
		if msg.Err != nil {
			return m.showError(msg.Err)
		}
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		m.statusMsg = "Configuration reloaded"
		m.refreshViewport()
		return m, clearStatusAfter(statusDuration)

	case StatusMsg:
		m.statusMsg = msg.Text
		return m, clearStatusAfter(statusDuration)

	case ClearStatusMsg:
		m.statusMsg = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.purpose == inputRename {
			m.purpose = inputCompose
			m.input.Reset()
			m.input.Placeholder = "Ask something..."
			return m, nil
		}
		if m.engine.Busy() {
			m.engine.CancelStream()
			m.statusMsg = "Stopped"
			return m, clearStatusAfter(statusDuration)
		}
		return m, nil

	case key.Matches(msg, m.keyMap.CycleFocus):
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.NewConv):
		m.followTail = true
		return m, selectConversationCmd(m.engine, 0)

	case key.Matches(msg, m.keyMap.ToggleMode):
		if m.mode == model.ModeChat {
			m.mode = model.ModeAgent
		} else {
			m.mode = model.ModeChat
		}
		m.engine.SetDefaultMode(m.mode)
		m.statusMsg = "Mode: " + string(m.mode)
		return m, clearStatusAfter(statusDuration)

	case key.Matches(msg, m.keyMap.ToggleRefs):
		m.showRefs = !m.showRefs
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.RenameConv):
		if id := m.engine.ActiveConversation(); id != 0 {
			m.purpose = inputRename
			m.focus = focusInput
			m.input.Focus()
			m.input.Reset()
			m.input.Placeholder = "New title..."
		}
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.followTail = false
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		if m.viewport.AtBottom() {
			m.followTail = true
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

// handleSidebarKey navigates and manages the conversation list.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	convs := m.engine.Conversations()

	switch {
	case key.Matches(msg, m.keyMap.Up):
		if m.convSelected > 0 {
			m.convSelected--
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		if m.convSelected < len(convs)-1 {
			m.convSelected++
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		if m.convSelected < len(convs) {
			m.focus = focusInput
			m.input.Focus()
			m.followTail = true
			return m, selectConversationCmd(m.engine, convs[m.convSelected].ID)
		}
		return m, nil

	case key.Matches(msg, m.keyMap.DeleteConv):
		if m.convSelected < len(convs) {
			return m, deleteConversationCmd(m.engine, convs[m.convSelected].ID)
		}
		return m, nil
	}
	return m, nil
}

// handleInputKey edits and submits the text input.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Submit) {
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}

		if m.purpose == inputRename {
			id := m.engine.ActiveConversation()
			m.purpose = inputCompose
			m.input.Reset()
			m.input.Placeholder = "Ask something..."
			return m, renameConversationCmd(m.engine, id, text)
		}

		m.input.Reset()
		m.followTail = true
		return m, submitCmd(m.engine, text)
	}

	switch {
	case key.Matches(msg, m.keyMap.Up):
		m.followTail = false
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		if m.viewport.AtBottom() {
			m.followTail = true
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// RESULT HANDLING
// =============================================================================

// handleSubmitResult maps submission failures onto user-facing status text.
func (m Model) handleSubmitResult(msg SubmitResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err == nil {
		m.refreshViewport()
		return m, nil
	}

	switch {
	case errors.Is(msg.Err, transcript.ErrBusy):
		m.statusMsg = "Still answering the previous message"
	case errors.Is(msg.Err, transcript.ErrInvalidInput):
		m.statusMsg = "Nothing to send"
	case errors.Is(msg.Err, transcript.ErrUnauthenticated):
		m.statusMsg = "Not logged in. Run: riverchat login"
	case errors.Is(msg.Err, api.ErrRateLimited):
		m.statusMsg = "Rate limited, try again shortly"
	default:
		m.lastErr = msg.Err
		m.statusMsg = "Request failed"
	}
	m.refreshViewport()
	return m, clearStatusAfter(statusDuration)
}

// showError surfaces an error in the status line.
func (m Model) showError(err error) (tea.Model, tea.Cmd) {
	m.lastErr = err
	m.statusMsg = err.Error()
	return m, clearStatusAfter(statusDuration)
}

// clampSelection keeps the sidebar cursor inside the refreshed list.
func (m *Model) clampSelection() {
	n := len(m.engine.Conversations())
	if m.convSelected >= n {
		m.convSelected = n - 1
	}
	if m.convSelected < 0 {
		m.convSelected = 0
	}
}
