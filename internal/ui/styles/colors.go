// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// Palette. Every color adapts to light and dark terminals.
var (
	// Accent is used for the focused pane, the spinner and the sidebar
	// selection.
	Accent = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

	// Brand marks the app name and the input prompt.
	Brand = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

	// Success is used for transient confirmations ("copied").
	Success = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

	// Danger is used for the inline error panel.
	Danger   = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	DangerBg = lipgloss.AdaptiveColor{Light: "#FEE2E2", Dark: "#3F1020"}

	// Warning is used for config reload notices.
	Warning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
)

// Surfaces and text.
var (
	SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
	Border     = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}
	BorderDim  = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// Transcript turns.
var (
	QuestionFg     = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
	QuestionBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

	AnswerFg     = lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#E9E4F5"}
	AnswerBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}
)
