// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	Name         string
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style
	RoleLabel       lipgloss.Style
	Timestamp       lipgloss.Style

	// ==========================================================================
	// REFERENCE PANEL STYLES
	// ==========================================================================

	ReferenceBox    lipgloss.Style
	ReferenceSource lipgloss.Style
	ReferenceText   lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	InputText      lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ModeChat     lipgloss.Style
	ModeAgent    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// CONVERSATION LIST STYLES
	// ==========================================================================

	ConvList         lipgloss.Style
	ConvItem         lipgloss.Style
	ConvItemSelected lipgloss.Style
	ConvTitle        lipgloss.Style
	ConvMeta         lipgloss.Style

	// ==========================================================================
	// SPINNER AND LOADING STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	// ==========================================================================
	// ERROR BOX STYLES
	// ==========================================================================

	ErrorBox     lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style
}

// NewTheme creates a theme by name. "river" is the full-color theme and
// "mono" keeps structure but drops color for limited terminals.
func NewTheme(name string) *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		Name:         name,
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	if name == "mono" {
		t.initMonoStyles()
	} else {
		t.initStyles()
	}
	return t
}

// initStyles initializes the full-color lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		Background(SurfaceDim).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		Background(AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 2).
		MarginRight(4)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(SystemBubbleFg).
		Background(SystemBubbleBg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(SystemBubbleBorder).
		Padding(0, 2).
		Align(lipgloss.Center)

	t.RoleLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Reference panel
	t.ReferenceBox = lipgloss.NewStyle().
		Foreground(ReferenceFg).
		Background(ReferenceBg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ReferenceBorder).
		BorderLeft(true).
		PaddingLeft(2).
		MarginLeft(2)

	t.ReferenceSource = lipgloss.NewStyle().
		Bold(true).
		Foreground(Blue)

	t.ReferenceText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ModeChat = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.ModeAgent = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Blue).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Conversation list
	t.ConvList = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.ConvItem = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ConvItemSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(OverlayDim).
		Bold(true).
		Padding(0, 1)

	t.ConvTitle = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ConvMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Spinner
	t.Spinner = lipgloss.NewStyle().
		Foreground(Teal)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Errors
	t.ErrorBox = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 2)

	t.ErrorTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)
}

// initMonoStyles initializes colorless styles that keep only layout and
// emphasis attributes.
func (t *Theme) initMonoStyles() {
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().Bold(true).Padding(0, 2)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true)
	t.HeaderSubtitle = lipgloss.NewStyle().Italic(true)

	bubble := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 2)
	t.UserBubble = bubble.MarginLeft(4)
	t.AssistantBubble = bubble.MarginRight(4)
	t.SystemBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		Padding(0, 2).
		Align(lipgloss.Center)

	t.RoleLabel = lipgloss.NewStyle().Bold(true)
	t.Timestamp = lipgloss.NewStyle().Faint(true)

	t.ReferenceBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		PaddingLeft(2).
		MarginLeft(2)
	t.ReferenceSource = lipgloss.NewStyle().Bold(true)
	t.ReferenceText = lipgloss.NewStyle().Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Bold(true)
	t.InputText = lipgloss.NewStyle()

	t.StatusBar = lipgloss.NewStyle().Padding(0, 1)
	t.ModeChat = lipgloss.NewStyle().Bold(true)
	t.ModeAgent = lipgloss.NewStyle().Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Faint(true)

	t.ConvList = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		PaddingRight(1)
	t.ConvItem = lipgloss.NewStyle().Padding(0, 1)
	t.ConvItemSelected = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	t.ConvTitle = lipgloss.NewStyle()
	t.ConvMeta = lipgloss.NewStyle().Faint(true)

	t.Spinner = lipgloss.NewStyle()
	t.ThinkingText = lipgloss.NewStyle().Italic(true)

	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 2)
	t.ErrorTitle = lipgloss.NewStyle().Bold(true)
	t.ErrorMessage = lipgloss.NewStyle()
}
