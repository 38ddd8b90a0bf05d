// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/askq/internal/model"
	"github.com/jeranaias/askq/internal/session"
	"github.com/jeranaias/askq/internal/ui/styles"
	"github.com/jeranaias/askq/internal/util"
)

// conversationItem adapts a saved conversation to list.Item.
type conversationItem struct {
	conv   model.Conversation
	active bool
}

func (i conversationItem) Title() string       { return i.conv.Title }
func (i conversationItem) Description() string { return i.conv.Preview(80) }
func (i conversationItem) FilterValue() string { return i.conv.Title }

// conversationDelegate renders one sidebar entry: the title on the first
// line and a preview of the last answer on the second.
type conversationDelegate struct {
	theme *styles.Theme
}

func (d conversationDelegate) Height() int                             { return 2 }
func (d conversationDelegate) Spacing() int                            { return 0 }
func (d conversationDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conversationDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(conversationItem)
	if !ok {
		return
	}

	width := m.Width() - 2
	if width < 4 {
		width = 4
	}

	title := it.conv.Title
	if it.active {
		title = "* " + title
	}
	title = util.TruncateWidth(title, width)
	preview := util.TruncateWidth(it.conv.Preview(width*2), width)

	titleStyle := d.theme.SidebarItem
	if index == m.Index() {
		titleStyle = d.theme.SidebarItemSelected
	}
	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(title), d.theme.SidebarItemMeta.Render(preview))
}

func newSidebar(theme *styles.Theme) list.Model {
	l := list.New(nil, conversationDelegate{theme: theme}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

// sidebarItems lists saved conversations newest first.
func sidebarItems(st session.State) []list.Item {
	items := make([]list.Item, 0, len(st.SavedConversations))
	for i := len(st.SavedConversations) - 1; i >= 0; i-- {
		c := st.SavedConversations[i]
		items = append(items, conversationItem{conv: c, active: c.ID == st.ActiveConversationID})
	}
	return items
}
