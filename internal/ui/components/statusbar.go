// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/riverchat-tui/internal/model"
	"github.com/jeranaias/riverchat-tui/internal/transcript"
	"github.com/jeranaias/riverchat-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar renders the bottom status line of the chat view.
type StatusBar struct {
	Theme    *styles.Theme
	Width    int
	Username string
	Mode     model.Mode
	State    transcript.StreamState
	Message  string
}

// stateLabel maps the stream lifecycle onto a short display string.
func stateLabel(s transcript.StreamState) string {
	switch s {
	case transcript.StateOpening:
		return "Connecting..."
	case transcript.StateStreaming:
		return "Streaming..."
	case transcript.StateAborted:
		return "Stopped"
	default:
		return "Ready"
	}
}

// Render renders the status bar at the configured width.
func (s StatusBar) Render() string {
	var parts []string

	if s.Username != "" {
		parts = append(parts, s.Theme.ShortcutDesc.Render(s.Username))
	}

	modeStyle := s.Theme.ModeChat
	if s.Mode == model.ModeAgent {
		modeStyle = s.Theme.ModeAgent
	}
	parts = append(parts, modeStyle.Render(strings.ToUpper(string(s.Mode))))

	parts = append(parts, stateLabel(s.State))

	if s.Message != "" {
		parts = append(parts, s.Message)
	}

	left := strings.Join(parts, "  |  ")
	help := s.Theme.ShortcutKey.Render("^N") + s.Theme.ShortcutDesc.Render(" new  ") +
		s.Theme.ShortcutKey.Render("^G") + s.Theme.ShortcutDesc.Render(" stop  ") +
		s.Theme.ShortcutKey.Render("^C") + s.Theme.ShortcutDesc.Render(" quit")

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(help) - 2
	if gap < 1 {
		gap = 1
	}

	return s.Theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + help)
}
