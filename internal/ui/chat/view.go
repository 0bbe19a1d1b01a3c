// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/riverchat-tui/internal/model"
	"github.com/jeranaias/riverchat-tui/internal/transcript"
	"github.com/jeranaias/riverchat-tui/internal/ui/components"
)

// =============================================================================
// LAYOUT
// =============================================================================

// layout recomputes component dimensions after a resize.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}

	// header (1) + input (3) + status bar (1)
	contentHeight := m.height - 5
	if contentHeight < 3 {
		contentHeight = 3
	}

	m.viewport.Width = m.transcriptWidth()
	m.viewport.Height = contentHeight
	m.input.Width = m.width - 6
}

// transcriptWidth is the width left for the transcript next to the sidebar.
func (m *Model) transcriptWidth() int {
	w := m.width - sidebarWidth - 1
	if w < 20 {
		w = 20
	}
	return w
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshViewport rebuilds the transcript content and keeps the view pinned
// to the tail while a reply is streaming.
func (m *Model) refreshViewport() {
	msgs := m.engine.Messages()
	width := m.transcriptWidth()

	var blocks []string
	for _, msg := range msgs {
		rendered := m.renderMessage(msg, width)
		if rendered != "" {
			blocks = append(blocks, rendered)
		}
	}

	if len(blocks) == 0 {
		blocks = append(blocks, m.theme.ThinkingText.Render(
			"No messages yet. Type below to start a conversation."))
	}

	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	if m.followTail {
		m.viewport.GotoBottom()
	}
}

// renderMessage renders one message, running finished assistant replies
// through the markdown renderer when enabled. The streaming placeholder is
// always rendered raw: re-rendering markdown on every delta is wasteful and
// flickers on unclosed fences.
func (m *Model) renderMessage(msg *model.Message, width int) string {
	view := components.MessageView{
		Message:  msg,
		Theme:    m.theme,
		Width:    width,
		ShowRefs: m.showRefs,
	}

	if msg.Role == model.RoleAssistant && !msg.IsStreaming && m.markdown != nil && msg.Content != "" {
		if rendered, err := m.markdown.Render(msg.Content); err == nil {
			copied := *msg
			copied.Content = strings.TrimRight(rendered, "\n")
			view.Message = &copied
		}
	}
	return view.Render()
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the complete chat screen.
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	header := m.theme.Header.Width(m.width).Render("riverchat")

	sidebar := components.ConvList{
		Theme:    m.theme,
		Width:    sidebarWidth,
		Height:   m.viewport.Height,
		Convs:    m.engine.Conversations(),
		Selected: m.convSelected,
		ActiveID: m.engine.ActiveConversation(),
	}.Render()

	transcriptPane := m.viewport.View()
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, transcriptPane)

	prompt := m.input.View()
	if m.engine.Busy() {
		prompt = m.spinner.View() + " " + m.theme.ThinkingText.Render("answering...")
	}
	inputArea := m.theme.InputContainer.Width(m.width).Render(prompt)

	status := components.StatusBar{
		Theme:    m.theme,
		Width:    m.width,
		Username: m.identity.Username,
		Mode:     m.mode,
		State:    m.engine.State(),
		Message:  m.statusLine(),
	}.Render()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, inputArea, status)
}

// statusLine picks what to show in the transient status slot.
func (m Model) statusLine() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}
	if m.engine.State() == transcript.StateAborted {
		return "Reply interrupted; partial answer kept"
	}
	return ""
}
