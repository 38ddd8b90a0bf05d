// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/askq/internal/model"
)

// State is a point-in-time copy of a Session. Mutating a State never affects
// the Session it came from.
type State struct {
	// PendingInput is the text currently in the input box.
	PendingInput string `json:"pending_input"`

	// ActiveTranscript is the conversation on screen.
	ActiveTranscript []model.Turn `json:"active_transcript"`

	// SavedConversations in creation order.
	SavedConversations []model.Conversation `json:"saved_conversations"`

	// IsLoading is true while a submission is in flight.
	IsLoading bool `json:"is_loading"`

	// LastError is the message of the most recent failed submission, or "".
	LastError string `json:"last_error,omitempty"`

	// ActiveConversationID is the saved conversation the active transcript
	// belongs to, or "" for a chat that has not been answered yet.
	ActiveConversationID string `json:"active_conversation_id,omitempty"`

	// Version increases with every transition. Observers receiving
	// snapshots out of order keep the highest.
	Version uint64 `json:"version"`
}

// HasError reports whether the last submission failed.
func (s State) HasError() bool {
	return s.LastError != ""
}

// IsEmpty reports whether the active transcript has no turns.
func (s State) IsEmpty() bool {
	return len(s.ActiveTranscript) == 0
}

// LastTurn returns the most recently added turn of the active transcript.
func (s State) LastTurn() (model.Turn, bool) {
	if len(s.ActiveTranscript) == 0 {
		return model.Turn{}, false
	}
	return s.ActiveTranscript[len(s.ActiveTranscript)-1], true
}

// ConversationIndex returns the position of id in SavedConversations, or -1.
func (s State) ConversationIndex(id string) int {
	for i, c := range s.SavedConversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// clone returns a deep copy of s.
func (s State) clone() State {
	out := s
	out.ActiveTranscript = model.CloneTranscript(s.ActiveTranscript)
	out.SavedConversations = make([]model.Conversation, len(s.SavedConversations))
	for i, c := range s.SavedConversations {
		out.SavedConversations[i] = c.Clone()
	}
	return out
}
