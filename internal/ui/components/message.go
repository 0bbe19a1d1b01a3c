// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/riverchat-tui/internal/model"
	"github.com/jeranaias/riverchat-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageView renders a single transcript message.
type MessageView struct {
	Message  *model.Message
	Theme    *styles.Theme
	Width    int
	ShowRefs bool
}

// Render renders the message as a styled bubble with an optional reference
// panel beneath it.
func (v MessageView) Render() string {
	if v.Message == nil {
		return ""
	}

	width := v.Width
	if width < 30 {
		width = 30
	}
	bubbleWidth := width - 8

	content := v.Message.Content
	if v.Message.IsStreaming && content == "" {
		content = v.Theme.ThinkingText.Render("...")
	}

	var bubble lipgloss.Style
	switch v.Message.Role {
	case model.RoleUser:
		bubble = v.Theme.UserBubble
	case model.RoleSystem, model.RoleTool:
		bubble = v.Theme.SystemBubble
	default:
		bubble = v.Theme.AssistantBubble
		content = RenderCodeBlocks(content, bubbleWidth)
	}

	label := v.Theme.RoleLabel.Render(v.Message.Role.DisplayName())
	if !v.Message.CreatedAt.IsZero() && !v.Message.IsLocal {
		label += " " + v.Theme.Timestamp.Render(v.Message.CreatedAt.Format("15:04"))
	}

	wrapped := wordwrap.String(content, bubbleWidth)
	rendered := label + "\n" + bubble.MaxWidth(bubbleWidth+6).Render(wrapped)

	if v.ShowRefs && len(v.Message.Metadata.References) > 0 {
		rendered += "\n" + v.renderReferences(bubbleWidth)
	}
	return rendered
}

// renderReferences renders the knowledge-base citations of a message.
func (v MessageView) renderReferences(width int) string {
	refs := v.Message.Metadata.References
	var lines []string
	for _, ref := range refs {
		source := ref.FileName
		if ref.Page > 0 {
			source = fmt.Sprintf("%s, p.%d", ref.FileName, ref.Page)
		}
		lines = append(lines, v.Theme.ReferenceSource.Render(source))
		if ref.Content != "" {
			snippet := ref.Content
			const maxSnippet = 200
			if runes := []rune(snippet); len(runes) > maxSnippet {
				snippet = string(runes[:maxSnippet]) + "..."
			}
			lines = append(lines, v.Theme.ReferenceText.Render(wordwrap.String(snippet, width-4)))
		}
	}
	title := v.Theme.ReferenceSource.Render(fmt.Sprintf("Sources (%d)", len(refs)))
	body := strings.Join(lines, "\n")
	return v.Theme.ReferenceBox.MaxWidth(width).Render(title + "\n" + body)
}
