// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/riverchat-tui/internal/model"
)

// runAsk sends a single question, waits for the streamed answer to finish,
// and prints it. The engine blocks until the stream completes, so no extra
// synchronization is needed here.
func (app *App) runAsk(parser *ArgParser) error {
	if _, ok := app.Store.Identity(); !ok {
		return fmt.Errorf("not logged in; run: riverchat login")
	}

	question := strings.TrimSpace(strings.Join(parser.PositionalFrom(1), " "))
	if question == "" {
		return fmt.Errorf("usage: riverchat ask \"question\"")
	}

	app.applyModeFlag(parser)

	if err := app.Engine.SubmitUserMessage(context.Background(), question); err != nil {
		return err
	}

	answer := lastAssistantContent(app.Engine.Messages())
	if answer == nil {
		return fmt.Errorf("no answer received")
	}

	fmt.Fprintln(app.Stdout, app.renderAnswer(answer.Content, parser.BoolFlag("no-markdown")))

	if refs := answer.Metadata.References; len(refs) > 0 {
		fmt.Fprintln(app.Stdout, "Sources:")
		for _, ref := range refs {
			if ref.Page > 0 {
				fmt.Fprintf(app.Stdout, "  - %s, p.%d\n", ref.FileName, ref.Page)
			} else {
				fmt.Fprintf(app.Stdout, "  - %s\n", ref.FileName)
			}
		}
	}

	app.mirrorActiveConversation()
	return nil
}

// renderAnswer renders markdown output unless disabled by flag or config.
func (app *App) renderAnswer(content string, noMarkdown bool) string {
	if noMarkdown || !app.Config.UI.Markdown {
		return content
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// lastAssistantContent returns the trailing assistant message, if any.
func lastAssistantContent(msgs []*model.Message) *model.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant {
			return msgs[i]
		}
	}
	return nil
}
