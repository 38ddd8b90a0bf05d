// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/askq/internal/model"
	"github.com/jeranaias/askq/internal/util"
)

// ErrBusy is returned by SubmitQuestion while another submission is in flight.
var ErrBusy = errors.New("a question is already being answered")

// Completer maps a prompt to generated text.
type Completer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f CompleterFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the chat state container.
type Session struct {
	mu sync.Mutex

	completer Completer
	logger    zerolog.Logger

	state State

	// epoch changes whenever the active chat is replaced (new chat or
	// selection), so a late answer can tell it no longer owns the screen.
	epoch uint64

	subscribers map[int]func(State)
	nextSubID   int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger.With().Str("component", "session").Logger()
	}
}

// New creates an empty Session backed by completer.
func New(completer Completer, opts ...Option) *Session {
	s := &Session{
		completer:   completer,
		logger:      zerolog.Nop(),
		subscribers: make(map[int]func(State)),
		state: State{
			ActiveTranscript:   []model.Turn{},
			SavedConversations: []model.Conversation{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// OBSERVERS
// =============================================================================

// Subscribe registers fn to receive a snapshot after every transition.
// fn is called outside the session lock and may call back into the Session.
// The returned function removes the subscription.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Conversation returns a copy of the saved conversation with id.
func (s *Session) Conversation(id string) (model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.state.ConversationIndex(id); i >= 0 {
		return s.state.SavedConversations[i].Clone(), true
	}
	return model.Conversation{}, false
}

// commitLocked snapshots the state under the lock and returns the subscribers to
// notify. Callers must hold s.mu.
func (s *Session) commitLocked() (State, []func(State)) {
	s.state.Version++
	subs := make([]func(State), 0, len(s.subscribers))
	for i := 0; i < s.nextSubID; i++ {
		if fn, ok := s.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}
	return s.state.clone(), subs
}

func notify(st State, subs []func(State)) {
	for _, fn := range subs {
		fn(st)
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// UpdatePendingInput stores text verbatim as the pending input.
func (s *Session) UpdatePendingInput(text string) {
	s.mu.Lock()
	if s.state.PendingInput == text {
		s.mu.Unlock()
		return
	}
	s.state.PendingInput = text
	st, subs := s.commitLocked()
	s.mu.Unlock()
	notify(st, subs)
}

// StartNewChat clears the active transcript. Saved conversations are kept.
func (s *Session) StartNewChat() {
	s.mu.Lock()
	s.state.ActiveTranscript = []model.Turn{}
	s.state.ActiveConversationID = ""
	s.epoch++
	st, subs := s.commitLocked()
	s.mu.Unlock()

	s.logger.Debug().Msg("new chat")
	notify(st, subs)
}

// SelectConversation loads a copy of the saved conversation with id into the
// active transcript. It returns false, changing nothing, when id is unknown.
func (s *Session) SelectConversation(id string) bool {
	s.mu.Lock()
	i := s.state.ConversationIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	conv := s.state.SavedConversations[i]
	s.state.ActiveTranscript = model.CloneTranscript(conv.Transcript)
	s.state.ActiveConversationID = conv.ID
	s.epoch++
	st, subs := s.commitLocked()
	s.mu.Unlock()

	s.logger.Debug().Str("conversation", id).Msg("conversation selected")
	notify(st, subs)
	return true
}

// SubmitQuestion sends text to the completer and records the outcome.
//
// Trimmed-empty text is ignored and nil is returned. While another submission
// is in flight it returns ErrBusy without touching the state. Otherwise the
// question turn is appended immediately, and after the call either an answer
// turn is appended and the conversation saved, or LastError is set. A failure
// reported after the user switched chats names the question in LastError. The
// completer's error is also returned to the caller.
func (s *Session) SubmitQuestion(ctx context.Context, text string) error {
	question := strings.TrimSpace(text)
	if question == "" {
		return nil
	}

	s.mu.Lock()
	if s.state.IsLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state.LastError = ""
	s.state.IsLoading = true
	s.state.ActiveTranscript = append(model.CloneTranscript(s.state.ActiveTranscript), model.NewQuestion(question))
	s.state.PendingInput = ""

	origin := submission{
		epoch:          s.epoch,
		conversationID: s.state.ActiveConversationID,
		transcript:     model.CloneTranscript(s.state.ActiveTranscript),
	}
	st, subs := s.commitLocked()
	s.mu.Unlock()
	notify(st, subs)

	defer func() {
		s.mu.Lock()
		s.state.IsLoading = false
		st, subs := s.commitLocked()
		s.mu.Unlock()
		notify(st, subs)
	}()

	s.logger.Debug().Int("question_len", len(question)).Msg("submitting question")

	answer, err := s.completer.Generate(ctx, question)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state.LastError = err.Error()
		if origin.epoch != s.epoch {
			// The question is no longer in the active transcript.
			s.state.LastError = errors.Wrapf(err, "question %q", model.DeriveTitle(question)).Error()
		}
		s.logger.Warn().Err(err).Msg("question failed")
		return err
	}

	s.recordAnswerLocked(origin, model.NewAnswer(util.CleanAnswer(answer)))
	return nil
}

// submission remembers where a question was asked.
type submission struct {
	epoch          uint64
	conversationID string
	transcript     []model.Turn
}

// recordAnswerLocked appends answer to the originating chat and saves it.
// When the user has since moved to another chat, the active transcript is
// left alone and only the saved record changes.
func (s *Session) recordAnswerLocked(origin submission, answer model.Turn) {
	if origin.epoch == s.epoch {
		s.state.ActiveTranscript = append(s.state.ActiveTranscript, answer)
		s.state.ActiveConversationID = s.saveLocked(origin.conversationID, s.state.ActiveTranscript)
		return
	}

	full := append(origin.transcript, answer)
	id := s.saveLocked(origin.conversationID, full)
	s.logger.Debug().Str("conversation", id).Msg("answer saved to inactive chat")

	// The user reopened the same conversation while it was pending.
	if origin.conversationID != "" && s.state.ActiveConversationID == origin.conversationID {
		s.state.ActiveTranscript = model.CloneTranscript(full)
	}
}

// saveLocked creates a conversation for transcript when id is empty, or
// replaces the transcript of the existing record. It returns the record's ID.
func (s *Session) saveLocked(id string, transcript []model.Turn) string {
	if i := s.state.ConversationIndex(id); id != "" && i >= 0 {
		s.state.SavedConversations[i] = s.state.SavedConversations[i].WithTranscript(transcript)
		return id
	}

	conv := model.NewConversation(transcript)
	s.state.SavedConversations = append(s.state.SavedConversations, conv)
	s.logger.Info().Str("conversation", conv.ID).Str("title", conv.Title).Msg("conversation saved")
	return conv.ID
}
