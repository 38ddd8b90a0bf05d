// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"time"

	"github.com/jeranaias/askq/internal/util"
)

// =============================================================================
// TURN KIND
// =============================================================================

// TurnKind identifies who produced a turn.
type TurnKind string

const (
	KindQuestion TurnKind = "question"
	KindAnswer   TurnKind = "answer"
)

// String returns the string representation of the kind.
func (k TurnKind) String() string {
	return string(k)
}

// DisplayName returns a human-readable label for the kind.
func (k TurnKind) DisplayName() string {
	switch k {
	case KindQuestion:
		return "You"
	case KindAnswer:
		return "Assistant"
	default:
		return string(k)
	}
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one question or one answer in a transcript.
// Turns are values and are never mutated after creation.
type Turn struct {
	Kind TurnKind  `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// NewQuestion creates a question turn.
func NewQuestion(text string) Turn {
	return Turn{Kind: KindQuestion, Text: text, At: time.Now()}
}

// NewAnswer creates an answer turn.
func NewAnswer(text string) Turn {
	return Turn{Kind: KindAnswer, Text: text, At: time.Now()}
}

// IsQuestion reports whether the turn was asked by the user.
func (t Turn) IsQuestion() bool {
	return t.Kind == KindQuestion
}

// IsAnswer reports whether the turn came from the endpoint.
func (t Turn) IsAnswer() bool {
	return t.Kind == KindAnswer
}

// Preview returns a truncated single-line preview of the turn text.
// Uses rune-based truncation to handle Unicode correctly.
func (t Turn) Preview(maxLen int) string {
	text := util.CollapseWhitespace(t.Text)
	if maxLen <= 3 {
		return text
	}
	return util.TruncateRunes(text, maxLen)
}

// =============================================================================
// TRANSCRIPT HELPERS
// =============================================================================

// CloneTranscript returns a copy of turns that shares no backing array.
// A nil or empty input yields an empty, non-nil slice.
func CloneTranscript(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// FirstQuestion returns the first question in turns, if any.
func FirstQuestion(turns []Turn) (Turn, bool) {
	for _, t := range turns {
		if t.IsQuestion() {
			return t, true
		}
	}
	return Turn{}, false
}

// LastAnswer returns the most recent answer in turns, if any.
func LastAnswer(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].IsAnswer() {
			return turns[i], true
		}
	}
	return Turn{}, false
}
