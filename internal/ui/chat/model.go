// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/riverchat-tui/internal/config"
	"github.com/jeranaias/riverchat-tui/internal/model"
	"github.com/jeranaias/riverchat-tui/internal/transcript"
	"github.com/jeranaias/riverchat-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// focusArea identifies which pane receives keyboard input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// inputPurpose distinguishes the two uses of the text input: composing a
// message and entering a new conversation title.
type inputPurpose int

const (
	inputCompose inputPurpose = iota
	inputRename
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// sidebarWidth is the fixed width of the conversation list pane.
const sidebarWidth = 28

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Engine and config
	engine   *transcript.Engine
	cfg      *config.Config
	identity model.Identity

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Key bindings
	keyMap KeyMap

	// Focus and input purpose
	focus   focusArea
	purpose inputPurpose

	// Sidebar selection (cursor, independent of the active conversation)
	convSelected int

	// Mode used for new conversations
	mode model.Mode

	// Presentation options
	showRefs  bool
	markdown  *glamour.TermRenderer
	statusMsg string
	lastErr   error

	// followTail pins the viewport to the bottom while a reply streams in.
	followTail bool
}

// New creates the chat model.
func New(engine *transcript.Engine, cfg *config.Config, identity model.Identity) Model {
	theme := styles.NewTheme(cfg.UI.Theme)

	input := textinput.New()
	input.Placeholder = "Ask something..."
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	var renderer *glamour.TermRenderer
	if cfg.UI.Markdown {
		// Rendering falls back to plain text when the renderer cannot be
		// built (e.g. dumb terminals).
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
	}

	return Model{
		engine:     engine,
		cfg:        cfg,
		identity:   identity,
		theme:      theme,
		viewport:   viewport.New(80, 20),
		input:      input,
		spinner:    sp,
		keyMap:     DefaultKeyMap(),
		mode:       cfg.Mode(),
		showRefs:   cfg.UI.ShowReferences,
		markdown:   renderer,
		followTail: true,
	}
}

// applyConfig adopts a config reloaded from disk: theme, markdown
// rendering, reference panel and default mode all follow the file.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.UI.Theme != m.cfg.UI.Theme {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.spinner.Style = m.theme.Spinner
	}
	if cfg.UI.Markdown != m.cfg.UI.Markdown {
		m.markdown = nil
		if cfg.UI.Markdown {
			m.markdown, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(80),
			)
		}
	}
	m.showRefs = cfg.UI.ShowReferences
	m.mode = cfg.Mode()
	m.engine.SetDefaultMode(m.mode)
	m.cfg = cfg
}

// Init loads the conversation list and starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		refreshConversationsCmd(m.engine),
		m.spinner.Tick,
	)
}

// clearStatusAfter schedules a status bar reset.
func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
