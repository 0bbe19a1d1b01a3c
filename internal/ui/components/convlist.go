// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/riverchat-tui/internal/model"
	"github.com/jeranaias/riverchat-tui/internal/ui/styles"
	"github.com/jeranaias/riverchat-tui/internal/util"
)

// =============================================================================
// CONVERSATION LIST COMPONENT
// =============================================================================

// ConvList renders the conversation sidebar.
type ConvList struct {
	Theme    *styles.Theme
	Width    int
	Height   int
	Convs    []model.Conversation
	Selected int
	ActiveID int64
}

// Render renders the sidebar. The selected row follows keyboard focus; the
// active marker follows the loaded conversation.
func (l ConvList) Render() string {
	innerWidth := l.Width - 3
	if innerWidth < 10 {
		innerWidth = 10
	}

	var rows []string
	rows = append(rows, l.Theme.HeaderTitle.Render("Conversations"))

	if len(l.Convs) == 0 {
		rows = append(rows, l.Theme.ConvMeta.Render("(none yet)"))
	}

	for i, conv := range l.Convs {
		if len(rows) >= l.Height-1 {
			break
		}

		marker := "  "
		if conv.ID == l.ActiveID {
			marker = "* "
		}
		title := util.TruncateWidth(conv.GetTitle(), innerWidth-2)

		style := l.Theme.ConvItem
		if i == l.Selected {
			style = l.Theme.ConvItemSelected
		}
		rows = append(rows, style.Width(innerWidth).Render(marker+title))
	}

	return l.Theme.ConvList.
		Width(l.Width).
		Height(l.Height).
		Render(strings.Join(rows, "\n"))
}
