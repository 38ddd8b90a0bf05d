// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TitleMaxRunes is the number of characters of the first question kept in a
// conversation title. Longer questions get an ellipsis.
const TitleMaxRunes = 30

// TitleEllipsis is appended to truncated titles.
const TitleEllipsis = "..."

// DefaultTitle is used when a transcript has no usable question.
const DefaultTitle = "New chat"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a saved, named transcript addressable by ID.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Transcript is owned by the conversation; use Clone before handing it out.
	Transcript []Turn `json:"transcript"`
}

// NewConversation snapshots transcript into a new conversation with a fresh ID
// and a title derived from its first question.
func NewConversation(transcript []Turn) Conversation {
	now := time.Now()
	return Conversation{
		ID:         uuid.NewString(),
		Title:      TitleFromTranscript(transcript),
		CreatedAt:  now,
		UpdatedAt:  now,
		Transcript: CloneTranscript(transcript),
	}
}

// WithTranscript returns a copy of c holding a snapshot of transcript.
// ID, title and creation time are kept.
func (c Conversation) WithTranscript(transcript []Turn) Conversation {
	c.Transcript = CloneTranscript(transcript)
	c.UpdatedAt = time.Now()
	return c
}

// Clone creates a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	c.Transcript = CloneTranscript(c.Transcript)
	return c
}

// TurnCount returns the number of turns.
func (c Conversation) TurnCount() int {
	return len(c.Transcript)
}

// IsEmpty returns true if there are no turns.
func (c Conversation) IsEmpty() bool {
	return len(c.Transcript) == 0
}

// Preview returns a short preview of the latest answer, or the title when
// nothing has been answered yet.
func (c Conversation) Preview(maxLen int) string {
	if last, ok := LastAnswer(c.Transcript); ok {
		return last.Preview(maxLen)
	}
	return c.Title
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// TitleFromTranscript derives a title from the first question in transcript.
func TitleFromTranscript(transcript []Turn) string {
	first, ok := FirstQuestion(transcript)
	if !ok {
		return DefaultTitle
	}
	return DeriveTitle(first.Text)
}

// DeriveTitle keeps the first TitleMaxRunes characters of question and
// appends TitleEllipsis when anything was cut.
func DeriveTitle(question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return DefaultTitle
	}
	runes := []rune(question)
	if len(runes) <= TitleMaxRunes {
		return question
	}
	return string(runes[:TitleMaxRunes]) + TitleEllipsis
}
