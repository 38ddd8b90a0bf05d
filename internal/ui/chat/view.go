// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/askq/internal/model"
	"github.com/jeranaias/askq/internal/ui/styles"
	"github.com/jeranaias/askq/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := m.renderMain()
	if !m.sidebarHidden() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatus(),
	)
}

func (m Model) renderHeader() string {
	title := "New chat"
	if i := m.state.ConversationIndex(m.state.ActiveConversationID); i >= 0 {
		title = m.state.SavedConversations[i].Title
	}

	brand := m.theme.HeaderBrand.Render("askq")
	rest := m.theme.HeaderTitle.Render(util.TruncateWidth(title, max(m.width-10, 1)))
	return m.theme.Header.Width(m.width).Render(brand + "  " + rest)
}

func (m Model) renderSidebar() string {
	style := m.theme.Sidebar
	if m.focus == focusSidebar {
		style = m.theme.SidebarFocused
	}

	heading := m.theme.SidebarHeading.Render(fmt.Sprintf("Chats (%d)", len(m.state.SavedConversations)))
	content := m.theme.SidebarEmpty.Render("No saved chats yet")
	if len(m.sidebar.Items()) > 0 {
		content = m.sidebar.View()
	}

	return style.
		Width(max(m.sidebarWidth-2, 1)).
		Height(m.viewport.Height).
		Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}

func (m Model) renderMain() string {
	style := m.theme.Transcript
	if m.showHelp {
		style = m.theme.HelpBox
		return style.
			Width(max(m.mainWidth()-2, 1)).
			Height(m.viewport.Height).
			Render(m.helpText)
	}
	return style.
		Width(max(m.mainWidth()-2, 1)).
		Height(m.viewport.Height).
		Render(m.viewport.View())
}

func (m Model) renderInput() string {
	style := m.theme.Input
	if m.focus == focusInput && !m.state.IsLoading {
		style = m.theme.InputFocused
	}

	var content string
	if m.state.IsLoading {
		content = m.spinner.View() + " " + m.theme.LoadingText.Render("Waiting for the answer...")
	} else {
		content = m.input.View()
	}
	return style.Width(max(m.width-2, 1)).Render(content)
}

func (m Model) renderStatus() string {
	left := m.help.View(m.keys)
	if m.notice != "" {
		noticeStyle := m.theme.Notice
		if m.noticeWarn {
			noticeStyle = m.theme.NoticeWarn
		}
		left = noticeStyle.Render(m.notice)
	}
	return m.theme.StatusBar.Width(m.width).Render(util.TruncateWidth(left, max(m.width-2, 1)))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders the active transcript at the given width,
// followed by the loading line or the error panel.
func (m Model) renderTranscript(width int) string {
	if width < 10 {
		width = 10
	}
	textWidth := width - 2

	var b strings.Builder
	if m.state.IsEmpty() && !m.state.IsLoading && !m.state.HasError() {
		b.WriteString(m.theme.EmptyChat.Render(
			lipgloss.NewStyle().Width(textWidth).Render("Type a question below and press Enter.")))
	}

	for i, turn := range m.state.ActiveTranscript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderTurn(m.theme, turn, textWidth))
	}

	if m.state.IsLoading {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.spinner.View() + " " + m.theme.LoadingText.Render("Thinking..."))
	}

	if m.state.HasError() {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		panel := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.ErrorTitle.Render("Something went wrong"),
			m.theme.ErrorMessage.Width(max(textWidth-4, 1)).Render(m.state.LastError),
		)
		b.WriteString(m.theme.ErrorPanel.Width(max(textWidth-2, 1)).Render(panel))
	}

	return b.String()
}

func renderTurn(theme *styles.Theme, turn model.Turn, width int) string {
	label, body := theme.AnswerLabel, theme.Answer
	if turn.IsQuestion() {
		label, body = theme.QuestionLabel, theme.Question
	}
	return label.Render(turn.Kind.DisplayName()) + "\n" +
		body.Width(max(width-2, 1)).Render(turn.Text)
}

// =============================================================================
// HELP
// =============================================================================

// helpMarkdown lists the key bindings as a markdown document.
func helpMarkdown(k KeyMap) string {
	var b strings.Builder
	b.WriteString("# Keyboard shortcuts\n\n")
	b.WriteString("| Key | Action |\n|---|---|\n")
	for _, group := range k.FullHelp() {
		for _, binding := range group {
			writeBinding(&b, binding)
		}
	}
	b.WriteString("\nPress **F1** or **Esc** to close this help.\n")
	return b.String()
}

func writeBinding(b *strings.Builder, binding key.Binding) {
	h := binding.Help()
	fmt.Fprintf(b, "| `%s` | %s |\n", h.Key, h.Desc)
}

// renderHelp renders the shortcut table with glamour, falling back to the
// raw markdown when rendering fails.
func renderHelp(k KeyMap, theme *styles.Theme, width int) string {
	md := helpMarkdown(k)
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
