// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/askq/internal/cloud"
	"github.com/jeranaias/askq/internal/config"
	"github.com/jeranaias/askq/internal/model"
	"github.com/jeranaias/askq/internal/session"
	"github.com/jeranaias/askq/internal/ui/styles"
)

// noticeDuration is how long a status notice stays visible.
const noticeDuration = 3 * time.Second

// narrowWidth is the terminal width below which the sidebar is hidden.
const narrowWidth = 60

var errNoAnswer = errors.New("no answer to copy")

// focus names the pane receiving key presses.
type focus int

const (
	focusInput focus = iota
	focusSidebar
)

// Options configures a Model.
type Options struct {
	// Placeholder for the empty input box.
	Placeholder string

	// SidebarWidth in cells, borders included.
	SidebarWidth int

	// Client receives endpoint changes from ConfigReloadedMsg. Optional.
	Client *cloud.Client

	// Clipboard writes text to the system clipboard. Defaults to
	// atotto/clipboard.
	Clipboard func(string) error

	Logger zerolog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	session *session.Session
	state   session.State

	// Styling
	theme *styles.Theme
	keys  KeyMap
	help  help.Model

	// Dimensions
	width        int
	height       int
	sidebarWidth int
	ready        bool

	focus    focus
	showHelp bool
	helpText string

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	sidebar  list.Model

	// Status notice ("Copied", "Config reloaded")
	notice     string
	noticeWarn bool
	noticeID   int

	client    *cloud.Client
	clipboard func(string) error
	cancelMgr *cancelManager
	logger    zerolog.Logger
}

// New creates a chat model over sess.
func New(sess *session.Session, theme *styles.Theme, opts Options) Model {
	if opts.Placeholder == "" {
		opts.Placeholder = config.DefaultPlaceholder
	}
	if opts.SidebarWidth <= 0 {
		opts.SidebarWidth = config.DefaultSidebarWidth
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = opts.Placeholder
	ti.CharLimit = 8192
	ti.PromptStyle = theme.InputPrompt
	ti.TextStyle = theme.InputText
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	h := help.New()
	h.Styles.ShortKey = theme.ShortcutKey
	h.Styles.ShortDesc = theme.ShortcutDesc

	m := Model{
		session:      sess,
		state:        sess.Snapshot(),
		theme:        theme,
		keys:         DefaultKeyMap(),
		help:         h,
		sidebarWidth: opts.SidebarWidth,
		focus:        focusInput,
		viewport:     viewport.New(80, 20),
		input:        ti,
		spinner:      sp,
		sidebar:      newSidebar(theme),
		client:       opts.Client,
		clipboard:    opts.Clipboard,
		cancelMgr:    newCancelManager(),
		logger:       opts.Logger.With().Str("component", "tui").Logger(),
	}
	m.sidebar.SetItems(sidebarItems(m.state))
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case StateChangedMsg:
		if msg.State.Version > m.state.Version {
			m.applyState(msg.State)
		}
		return m, nil

	case submitDoneMsg:
		m.cancelMgr.cancel()
		m.applyState(m.session.Snapshot())
		if msg.err != nil {
			m.logger.Debug().Err(msg.err).Msg("submission failed")
		}
		return m, nil

	case spinner.TickMsg:
		if !m.state.IsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd

	case copyResultMsg:
		if msg.err != nil {
			return m.setNotice("Copy failed: "+msg.err.Error(), true)
		}
		return m.setNotice(fmt.Sprintf("Copied answer (%d chars)", msg.chars), false)

	case ConfigReloadedMsg:
		return m.handleConfigReload(msg)

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil
	}

	// Cursor blink and other input-internal messages.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.layout()
	m.helpText = renderHelp(m.keys, m.theme, m.mainWidth()-4)
	m.refreshViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelMgr.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.refreshViewport()
		return m, nil

	case msg.Type == tea.KeyEsc && m.showHelp:
		m.showHelp = false
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		m.session.StartNewChat()
		m.applyState(m.session.Snapshot())
		return m.focusInput()

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyLastAnswer()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.SwitchPane):
		if m.focus == focusSidebar {
			return m.focusInput()
		}
		if len(m.state.SavedConversations) == 0 || m.sidebarHidden() {
			return m, nil
		}
		m.focus = focusSidebar
		m.input.Blur()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Open) {
		if it, ok := m.sidebar.SelectedItem().(conversationItem); ok {
			m.session.SelectConversation(it.conv.ID)
			m.applyState(m.session.Snapshot())
		}
		return m.focusInput()
	}
	var cmd tea.Cmd
	m.sidebar, cmd = m.sidebar.Update(msg)
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Input is disabled while a question is being answered.
	if m.state.IsLoading {
		return m, nil
	}

	if key.Matches(msg, m.keys.Ask) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.UpdatePendingInput(m.input.Value())
	m.state = m.session.Snapshot()
	return m, cmd
}

// submit starts the request/response cycle for the current input.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" || m.cancelMgr.active() {
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)

	m.input.Reset()
	m.input.Blur()
	// Block a second Enter until the session snapshot arrives.
	m.state.IsLoading = true
	m.refreshViewport()

	sess := m.session
	ask := func() tea.Msg {
		return submitDoneMsg{err: sess.SubmitQuestion(ctx, text)}
	}
	return m, tea.Batch(m.spinner.Tick, ask)
}

func (m Model) focusInput() (tea.Model, tea.Cmd) {
	m.focus = focusInput
	if m.state.IsLoading {
		return m, nil
	}
	return m, m.input.Focus()
}

func (m Model) copyLastAnswer() tea.Cmd {
	answer, ok := model.LastAnswer(m.state.ActiveTranscript)
	if !ok || answer.Text == "" {
		return func() tea.Msg {
			return copyResultMsg{err: errNoAnswer}
		}
	}
	write := m.clipboard
	text := answer.Text
	return func() tea.Msg {
		return copyResultMsg{chars: len([]rune(text)), err: write(text)}
	}
}

func (m Model) handleConfigReload(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn().Err(msg.Err).Msg("config reload failed")
		return m.setNotice("Config not reloaded: "+msg.Err.Error(), true)
	}
	if m.client != nil && msg.Config != nil {
		m.client.SetEndpoint(msg.Config.Endpoint.URL)
		m.client.SetTimeout(msg.Config.Endpoint.Timeout())
		m.logger.Info().Str("endpoint", m.client.EndpointRedacted()).Msg("config reloaded")
	}
	return m.setNotice("Config reloaded", false)
}

func (m Model) setNotice(text string, warn bool) (tea.Model, tea.Cmd) {
	m.noticeID++
	m.notice = text
	m.noticeWarn = warn
	id := m.noticeID
	return m, tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{id: id}
	})
}

// =============================================================================
// STATE
// =============================================================================

// applyState installs a session snapshot and refreshes dependent widgets.
func (m *Model) applyState(st session.State) {
	wasLoading := m.state.IsLoading
	m.state = st

	m.sidebar.SetItems(sidebarItems(st))
	for i, item := range m.sidebar.Items() {
		if it, ok := item.(conversationItem); ok && it.active {
			m.sidebar.Select(i)
			break
		}
	}

	if wasLoading && !st.IsLoading && m.focus == focusInput {
		m.input.Focus()
	}
	m.refreshViewport()
}

// refreshViewport re-renders the transcript and keeps it scrolled to the end.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript(m.viewport.Width))
	if !m.showHelp {
		m.viewport.GotoBottom()
	}
}

// layout sizes every widget from the terminal dimensions.
func (m *Model) layout() {
	const (
		headerHeight = 1
		inputHeight  = 3
		statusHeight = 1
		paneBorder   = 2
	)

	bodyHeight := m.height - headerHeight - inputHeight - statusHeight
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	m.viewport.Width = max(m.mainWidth()-4, 1)
	m.viewport.Height = max(bodyHeight-paneBorder, 1)

	// Heading line plus its margin.
	m.sidebar.SetSize(max(m.sidebarWidth-4, 1), max(bodyHeight-paneBorder-2, 1))

	m.input.Width = max(m.mainWidth()-4-len(m.input.Prompt)-1, 10)
	m.help.Width = m.width
}

func (m Model) sidebarHidden() bool {
	return m.width < narrowWidth
}

func (m Model) mainWidth() int {
	if m.sidebarHidden() {
		return m.width
	}
	return m.width - m.sidebarWidth
}

// State returns the snapshot currently displayed.
func (m Model) State() session.State {
	return m.state
}
