// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
//
// This package defines the core domain types shared by the session, the TUI
// and the command-line front ends.
//
// # Key Types
//
//   - Turn: one question or one answer, immutable once created
//   - TurnKind: question or answer
//   - Conversation: a saved transcript with an ID and a derived title
//
// # Usage
//
// Snapshot a transcript into a saved conversation:
//
//	transcript := []model.Turn{
//	    model.NewQuestion("Explain how AI works in a few words"),
//	    model.NewAnswer("AI learns patterns."),
//	}
//	conv := model.NewConversation(transcript)
//	fmt.Println(conv.Title) // "Explain how AI works in a few ..."
package model
