// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/riverchat-tui/internal/model"
	"github.com/jeranaias/riverchat-tui/internal/transcript"
	"github.com/jeranaias/riverchat-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	// Mono avoids depending on the test terminal's color profile.
	return styles.NewTheme("mono")
}

func TestMessageViewRendersContent(t *testing.T) {
	msg := &model.Message{
		ID:        "1",
		Role:      model.RoleAssistant,
		Content:   "The stage is 3.2m tall.",
		CreatedAt: time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC),
	}
	out := MessageView{Message: msg, Theme: testTheme(), Width: 80}.Render()

	if !strings.Contains(out, "The stage is 3.2m tall.") {
		t.Error("message content missing from render")
	}
	if !strings.Contains(out, "Assistant") {
		t.Error("role label missing from render")
	}
	if !strings.Contains(out, "14:30") {
		t.Error("timestamp missing from render")
	}
}

func TestMessageViewStreamingPlaceholder(t *testing.T) {
	msg := model.NewAssistantPlaceholder()
	out := MessageView{Message: msg, Theme: testTheme(), Width: 80}.Render()

	if !strings.Contains(out, "...") {
		t.Error("empty streaming message should render an ellipsis")
	}
	// Local placeholders carry no meaningful timestamp.
	if strings.Contains(out, time.Now().Format("15:04")) {
		t.Error("local message should not render a timestamp")
	}
}

func TestMessageViewReferences(t *testing.T) {
	msg := &model.Message{ID: "1", Role: model.RoleAssistant, Content: "3.2m"}
	msg.SetReferences([]model.Reference{
		{FileName: "stages.pdf", Page: 4, Content: "Stage 3: 3.2m"},
	})

	out := MessageView{Message: msg, Theme: testTheme(), Width: 80, ShowRefs: true}.Render()
	if !strings.Contains(out, "stages.pdf") {
		t.Error("reference source missing from render")
	}
	if !strings.Contains(out, "Sources (1)") {
		t.Error("reference panel title missing")
	}

	hidden := MessageView{Message: msg, Theme: testTheme(), Width: 80, ShowRefs: false}.Render()
	if strings.Contains(hidden, "stages.pdf") {
		t.Error("references rendered while hidden")
	}
}

func TestRenderCodeBlocksKeepsProse(t *testing.T) {
	text := "Intro line\n```go\nfmt.Println(\"hi\")\n```\nOutro line"
	out := RenderCodeBlocks(text, 80)

	if !strings.Contains(out, "Intro line") || !strings.Contains(out, "Outro line") {
		t.Error("prose around the code block was lost")
	}
	if !strings.Contains(out, "Println") {
		t.Error("code content was lost")
	}
	if strings.Contains(out, "```") {
		t.Error("fence markers should be consumed")
	}
}

func TestRenderCodeBlocksUnclosedFence(t *testing.T) {
	// Streaming leaves fences open mid-delta; content must still render.
	out := RenderCodeBlocks("```python\nprint(1)", 80)
	if !strings.Contains(out, "print(1)") {
		t.Error("unclosed code block content was dropped")
	}
}

func TestStatusBarStates(t *testing.T) {
	tests := []struct {
		state transcript.StreamState
		want  string
	}{
		{transcript.StateIdle, "Ready"},
		{transcript.StateOpening, "Connecting..."},
		{transcript.StateStreaming, "Streaming..."},
		{transcript.StateCompleted, "Ready"},
		{transcript.StateAborted, "Stopped"},
	}
	for _, tt := range tests {
		bar := StatusBar{
			Theme:    testTheme(),
			Width:    100,
			Username: "alice",
			Mode:     model.ModeChat,
			State:    tt.state,
		}
		out := bar.Render()
		if !strings.Contains(out, tt.want) {
			t.Errorf("state %v: want %q in output", tt.state, tt.want)
		}
		if !strings.Contains(out, "alice") {
			t.Errorf("state %v: username missing", tt.state)
		}
	}
}

func TestConvListMarksActiveAndSelected(t *testing.T) {
	convs := []model.Conversation{
		{ID: 1, Title: "Stage heights"},
		{ID: 2, Title: "Pump specs"},
	}
	out := ConvList{
		Theme:    testTheme(),
		Width:    28,
		Height:   10,
		Convs:    convs,
		Selected: 1,
		ActiveID: 1,
	}.Render()

	if !strings.Contains(out, "* Stage heights") {
		t.Error("active conversation marker missing")
	}
	if !strings.Contains(out, "Pump specs") {
		t.Error("conversation title missing")
	}
}

func TestConvListEmpty(t *testing.T) {
	out := ConvList{Theme: testTheme(), Width: 28, Height: 10}.Render()
	if !strings.Contains(out, "(none yet)") {
		t.Error("empty list placeholder missing")
	}
}
