// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/askq/internal/cloud"
	"github.com/jeranaias/askq/internal/config"
	"github.com/jeranaias/askq/internal/session"
	"github.com/jeranaias/askq/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

func answer(text string) session.Completer {
	return session.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return text, nil
	})
}

func echo() session.Completer {
	return session.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "re: " + prompt, nil
	})
}

func newTestModel(t *testing.T, c session.Completer, opts Options) (Model, *session.Session) {
	t.Helper()
	sess := session.New(c)
	m := New(sess, styles.NewThemeFor(termenv.Ascii, true), opts)
	return resize(m, 100, 30), sess
}

func resize(m Model, w, h int) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return next.(Model)
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func typeText(m Model, text string) Model {
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyCtrlN = tea.KeyMsg{Type: tea.KeyCtrlN}
	keyCtrlY = tea.KeyMsg{Type: tea.KeyCtrlY}
	keyCtrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
	keyF1    = tea.KeyMsg{Type: tea.KeyF1}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

// collect runs cmd and returns the messages it produces, expanding batches.
// Commands that do not finish within wait (cursor blink, notice timers) are
// dropped.
func collect(cmd tea.Cmd, wait time.Duration) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(wait):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c, wait)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// feed delivers the results of cmd back into the model, the way the Bubble
// Tea runtime would. Timer-driven messages are not followed.
func feed(m Model, cmd tea.Cmd) Model {
	for _, msg := range collect(cmd, 250*time.Millisecond) {
		switch msg.(type) {
		case submitDoneMsg, copyResultMsg, StateChangedMsg:
			next, _ := m.Update(msg)
			m = next.(Model)
		}
	}
	return m
}

func ask(m Model, question string) Model {
	m = typeText(m, question)
	m, cmd := press(m, keyEnter)
	return feed(m, cmd)
}

// =============================================================================
// SUBMISSION TESTS
// =============================================================================

func TestModel_TypingUpdatesPendingInput(t *testing.T) {
	m, sess := newTestModel(t, echo(), Options{})

	m = typeText(m, "hello")
	assert.Equal(t, "hello", m.input.Value())
	assert.Equal(t, "hello", sess.Snapshot().PendingInput)
}

func TestModel_SubmitAndAnswer(t *testing.T) {
	m, sess := newTestModel(t, answer("Go is a programming language."), Options{})

	m = typeText(m, "What is Go?")
	m, cmd := press(m, keyEnter)
	require.NotNil(t, cmd)
	assert.True(t, m.State().IsLoading, "loading shown before the answer arrives")
	assert.Empty(t, m.input.Value())

	m = feed(m, cmd)
	st := m.State()
	assert.False(t, st.IsLoading)
	require.Len(t, st.ActiveTranscript, 2)
	assert.Equal(t, "What is Go?", st.ActiveTranscript[0].Text)
	assert.Equal(t, "Go is a programming language.", st.ActiveTranscript[1].Text)
	require.Len(t, st.SavedConversations, 1)
	assert.Equal(t, sess.Snapshot().Version, st.Version)

	view := m.View()
	assert.Contains(t, view, "You")
	assert.Contains(t, view, "Assistant")
	assert.Contains(t, view, "Go is a programming language.")
	assert.True(t, m.input.Focused(), "input refocused after the answer")
}

func TestModel_BlankSubmitIsIgnored(t *testing.T) {
	m, sess := newTestModel(t, echo(), Options{})

	m = typeText(m, "   ")
	m, cmd := press(m, keyEnter)
	assert.Nil(t, cmd)
	assert.False(t, m.State().IsLoading)
	assert.Empty(t, sess.Snapshot().ActiveTranscript)
}

func TestModel_InputDisabledWhileLoading(t *testing.T) {
	m, sess := newTestModel(t, echo(), Options{})

	m = typeText(m, "first")
	m, cmd := press(m, keyEnter)

	m = typeText(m, "ignored")
	assert.Empty(t, m.input.Value())

	m, second := press(m, keyEnter)
	assert.Nil(t, second)

	m = feed(m, cmd)
	assert.Len(t, sess.Snapshot().ActiveTranscript, 2)
	assert.Len(t, m.State().ActiveTranscript, 2)
}

func TestModel_ErrorPanel(t *testing.T) {
	calls := 0
	flaky := session.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("endpoint returned HTTP 500: overloaded")
		}
		return "yes", nil
	})
	m, _ := newTestModel(t, flaky, Options{})

	m = ask(m, "Will this work?")
	st := m.State()
	assert.False(t, st.IsLoading)
	assert.True(t, st.HasError())
	require.Len(t, st.ActiveTranscript, 1)
	assert.Empty(t, st.SavedConversations)

	view := m.View()
	assert.Contains(t, view, "Something went wrong")
	assert.Contains(t, view, "overloaded")

	// The next successful submission clears the panel.
	m = ask(m, "Again?")
	assert.False(t, m.State().HasError())
	assert.NotContains(t, m.View(), "Something went wrong")
}

// =============================================================================
// SNAPSHOT ORDERING TESTS
// =============================================================================

func TestModel_StaleSnapshotIsDropped(t *testing.T) {
	m, _ := newTestModel(t, echo(), Options{})

	fresh := session.State{PendingInput: "new", Version: 5}
	stale := session.State{PendingInput: "old", Version: 3}

	next, _ := m.Update(StateChangedMsg{State: fresh})
	m = next.(Model)
	next, _ = m.Update(StateChangedMsg{State: stale})
	m = next.(Model)

	assert.Equal(t, "new", m.State().PendingInput)
	assert.Equal(t, uint64(5), m.State().Version)
}

func TestBridge_ForwardsSnapshots(t *testing.T) {
	sess := session.New(echo())
	got := make(chan tea.Msg, 4)
	stop := Bridge(sess, func(msg tea.Msg) { got <- msg })

	sess.UpdatePendingInput("draft")
	select {
	case msg := <-got:
		sc, ok := msg.(StateChangedMsg)
		require.True(t, ok)
		assert.Equal(t, "draft", sc.State.PendingInput)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot forwarded")
	}

	stop()
	sess.UpdatePendingInput("after stop")
	select {
	case msg := <-got:
		t.Fatalf("unexpected message after stop: %#v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestModel_NewChat(t *testing.T) {
	m, _ := newTestModel(t, echo(), Options{})
	m = ask(m, "one")

	m, _ = press(m, keyCtrlN)
	st := m.State()
	assert.Empty(t, st.ActiveTranscript)
	assert.Empty(t, st.ActiveConversationID)
	assert.Len(t, st.SavedConversations, 1)
	assert.Contains(t, m.View(), "Type a question below")
}

func TestModel_SidebarOpensConversation(t *testing.T) {
	m, _ := newTestModel(t, echo(), Options{})
	m = ask(m, "first question")
	firstID := m.State().ActiveConversationID
	m, _ = press(m, keyCtrlN)
	m = ask(m, "second question")
	require.Len(t, m.State().SavedConversations, 2)
	assert.Contains(t, m.View(), "Chats (2)")

	m, _ = press(m, keyTab)
	assert.Equal(t, focusSidebar, m.focus)

	// Newest first: the first conversation is the second row.
	m, _ = press(m, keyDown)
	m, _ = press(m, keyEnter)

	st := m.State()
	assert.Equal(t, firstID, st.ActiveConversationID)
	require.Len(t, st.ActiveTranscript, 2)
	assert.Equal(t, "first question", st.ActiveTranscript[0].Text)
	assert.Equal(t, focusInput, m.focus)

	// Continuing updates the selected conversation in place.
	m = ask(m, "follow up")
	st = m.State()
	assert.Len(t, st.SavedConversations, 2)
	assert.Len(t, st.ActiveTranscript, 4)
	assert.Equal(t, firstID, st.ActiveConversationID)
}

func TestModel_TabWithoutConversationsKeepsInputFocus(t *testing.T) {
	m, _ := newTestModel(t, echo(), Options{})
	m, _ = press(m, keyTab)
	assert.Equal(t, focusInput, m.focus)
}

func TestModel_NarrowTerminalHidesSidebar(t *testing.T) {
	m, _ := newTestModel(t, echo(), Options{})
	m = ask(m, "hi")
	assert.Contains(t, m.View(), "Chats (1)")

	m = resize(m, 50, 20)
	assert.NotContains(t, m.View(), "Chats (")

	m, _ = press(m, keyTab)
	assert.Equal(t, focusInput, m.focus)
}

// =============================================================================
// CLIPBOARD / NOTICE TESTS
// =============================================================================

func TestModel_CopyLastAnswer(t *testing.T) {
	var copied string
	m, _ := newTestModel(t, answer("copy me"), Options{
		Clipboard: func(s string) error { copied = s; return nil },
	})
	m = ask(m, "q")

	m, cmd := press(m, keyCtrlY)
	m = feed(m, cmd)
	assert.Equal(t, "copy me", copied)
	assert.Contains(t, m.View(), "Copied answer (7 chars)")
}

func TestModel_CopyWithoutAnswer(t *testing.T) {
	called := false
	m, _ := newTestModel(t, echo(), Options{
		Clipboard: func(string) error { called = true; return nil },
	})

	m, cmd := press(m, keyCtrlY)
	m = feed(m, cmd)
	assert.False(t, called)
	assert.Contains(t, m.View(), "Copy failed")
}

func TestModel_NoticeClears(t *testing.T) {
	m, _ := newTestModel(t, echo(), Options{Clipboard: func(string) error { return nil }})
	m = ask(m, "q")
	m, cmd := press(m, keyCtrlY)
	m = feed(m, cmd)
	require.NotEmpty(t, m.notice)

	next, _ := m.Update(clearNoticeMsg{id: m.noticeID - 1})
	m = next.(Model)
	assert.NotEmpty(t, m.notice, "stale timers leave newer notices alone")

	next, _ = m.Update(clearNoticeMsg{id: m.noticeID})
	m = next.(Model)
	assert.Empty(t, m.notice)
}

// =============================================================================
// CONFIG RELOAD TESTS
// =============================================================================

func TestModel_ConfigReloadUpdatesClient(t *testing.T) {
	client := cloud.NewClient("")
	m, _ := newTestModel(t, client, Options{Client: client})

	cfg := config.Default()
	cfg.Endpoint.URL = "https://api.example.com/gen?key=secret"
	cfg.Endpoint.TimeoutSecs = 20

	next, _ := m.Update(ConfigReloadedMsg{Config: cfg})
	m = next.(Model)
	assert.True(t, client.IsConfigured())
	assert.Equal(t, "https://api.example.com/gen", client.EndpointRedacted())
	assert.Contains(t, m.View(), "Config reloaded")
}

func TestModel_ConfigReloadError(t *testing.T) {
	client := cloud.NewClient("https://keep.example.com/gen")
	m, _ := newTestModel(t, client, Options{Client: client})

	next, _ := m.Update(ConfigReloadedMsg{Err: errors.New("ui.sidebar_width: out of range")})
	m = next.(Model)
	assert.Equal(t, "https://keep.example.com/gen", client.EndpointRedacted())
	assert.Contains(t, m.View(), "Config not reloaded")
}

func TestModel_BusySessionReleasesInput(t *testing.T) {
	release := make(chan struct{})
	m, sess := newTestModel(t, session.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		if prompt == "elsewhere" {
			<-release
		}
		return "re: " + prompt, nil
	}), Options{})

	m = typeText(m, "mine")

	otherDone := make(chan error, 1)
	go func() { otherDone <- sess.SubmitQuestion(context.Background(), "elsewhere") }()
	require.Eventually(t, func() bool { return sess.Snapshot().IsLoading }, time.Second, 5*time.Millisecond)

	m, cmd := press(m, keyEnter)
	require.NotNil(t, cmd)
	var results []tea.Msg
	for _, msg := range collect(cmd, 250*time.Millisecond) {
		if done, ok := msg.(submitDoneMsg); ok {
			results = append(results, msg)
			assert.True(t, errors.Is(done.err, session.ErrBusy))
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	require.Len(t, results, 1)
	assert.False(t, m.cancelMgr.active(), "a rejected submission must not hold the input")

	close(release)
	require.NoError(t, <-otherDone)
	next, _ := m.Update(StateChangedMsg{State: sess.Snapshot()})
	m = next.(Model)
	require.False(t, m.State().IsLoading)

	m = ask(m, "again")
	st := m.State()
	require.Len(t, st.ActiveTranscript, 4)
	assert.Equal(t, "again", st.ActiveTranscript[2].Text)
	assert.Equal(t, "re: again", st.ActiveTranscript[3].Text)
}

// =============================================================================
// KEY TESTS
// =============================================================================

func TestModel_QuitCancelsInFlight(t *testing.T) {
	m, _ := newTestModel(t, echo(), Options{})
	m = typeText(m, "q")
	m, _ = press(m, keyEnter)
	require.True(t, m.cancelMgr.active())

	m, cmd := press(m, keyCtrlC)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, m.cancelMgr.active())
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newTestModel(t, echo(), Options{})

	m, _ = press(m, keyF1)
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard shortcuts")

	m, _ = press(m, keyEsc)
	assert.False(t, m.showHelp)
	assert.NotContains(t, m.View(), "Keyboard shortcuts")
}

func TestHelpMarkdown_ListsBindings(t *testing.T) {
	md := helpMarkdown(DefaultKeyMap())
	for _, want := range []string{"ask", "new chat", "copy answer", "quit"} {
		assert.Contains(t, md, want)
	}
	assert.Equal(t, 1, strings.Count(md, "# Keyboard shortcuts"))
}

func TestModel_Placeholder(t *testing.T) {
	m, _ := newTestModel(t, echo(), Options{Placeholder: "Ask away"})
	assert.Equal(t, "Ask away", m.input.Placeholder)

	m, _ = newTestModel(t, echo(), Options{})
	assert.Equal(t, config.DefaultPlaceholder, m.input.Placeholder)
}

func TestCancelManager(t *testing.T) {
	cm := newCancelManager()
	assert.False(t, cm.active())

	firstCancelled := false
	cm.set(func() { firstCancelled = true })
	cm.set(func() {})
	assert.True(t, firstCancelled, "replacing cancels the previous submission")

	cm.cancel()
	cm.cancel()
	assert.False(t, cm.active())
}
