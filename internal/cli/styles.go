// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/askq/internal/ui/styles"
)

// =============================================================================
// SHARED STYLES FOR CLI COMMANDS
// =============================================================================

var (
	// promptStyle colors the REPL prompt.
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Brand).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Accent).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Success)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Danger).
			Bold(true)

	answerLabelStyle = lipgloss.NewStyle().
				Foreground(styles.AnswerBorder).
				Bold(true)

	activeMarkerStyle = lipgloss.NewStyle().
				Foreground(styles.Accent)
)
