// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderTitle lipgloss.Style

	// ==========================================================================
	// SIDEBAR (saved conversations)
	// ==========================================================================

	Sidebar             lipgloss.Style
	SidebarFocused      lipgloss.Style
	SidebarHeading      lipgloss.Style
	SidebarItem         lipgloss.Style
	SidebarItemSelected lipgloss.Style
	SidebarItemMeta     lipgloss.Style
	SidebarEmpty        lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	Transcript    lipgloss.Style
	QuestionLabel lipgloss.Style
	Question      lipgloss.Style
	AnswerLabel   lipgloss.Style
	Answer        lipgloss.Style
	EmptyChat     lipgloss.Style

	// ErrorPanel is appended under the transcript after a failed submission.
	ErrorPanel   lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	Input            lipgloss.Style
	InputFocused     lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// LOADING / STATUS
	// ==========================================================================

	Spinner     lipgloss.Style
	LoadingText lipgloss.Style

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Notice       lipgloss.Style
	NoticeWarn   lipgloss.Style

	HelpBox lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	return NewThemeFor(termenv.ColorProfile(), termenv.HasDarkBackground())
}

// NewThemeFor creates a theme for an explicit profile and background.
func NewThemeFor(profile termenv.Profile, isDark bool) *Theme {
	t := &Theme{
		IsDark:       isDark,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// GlamourStyle returns the glamour standard style name matching the
// terminal background.
func (t *Theme) GlamourStyle() string {
	if t.ColorProfile == termenv.Ascii {
		return "notty"
	}
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Brand)

	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	t.SidebarFocused = t.Sidebar.
		BorderForeground(Accent)

	t.SidebarHeading = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		MarginBottom(1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.SidebarItemSelected = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Accent).
		PaddingLeft(1)

	t.SidebarItemMeta = lipgloss.NewStyle().
		Foreground(TextMuted).
		PaddingLeft(2)

	t.SidebarEmpty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Transcript
	t.Transcript = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	t.QuestionLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(QuestionBorder)

	t.Question = lipgloss.NewStyle().
		Foreground(QuestionFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(QuestionBorder).
		PaddingLeft(1)

	t.AnswerLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(AnswerBorder)

	t.Answer = lipgloss.NewStyle().
		Foreground(AnswerFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AnswerBorder).
		PaddingLeft(1)

	t.EmptyChat = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.ErrorPanel = lipgloss.NewStyle().
		Background(DangerBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Danger).
		Padding(0, 1)

	t.ErrorTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Danger)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Input
	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BorderDim).
		Padding(0, 1)

	t.InputFocused = t.Input.
		BorderForeground(Brand)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Brand).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Loading / status
	t.Spinner = lipgloss.NewStyle().
		Foreground(Accent)

	t.LoadingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Brand).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Notice = lipgloss.NewStyle().
		Foreground(Success)

	t.NoticeWarn = lipgloss.NewStyle().
		Foreground(Warning)

	t.HelpBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(0, 1)
}
