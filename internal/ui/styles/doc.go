// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the lipgloss palette and theme for the askq TUI.
//
// Colors are lipgloss.AdaptiveColor values, so the theme follows the
// terminal's light or dark background. NewTheme probes the terminal with
// termenv once at startup.
package styles
