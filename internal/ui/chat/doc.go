// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the interactive chat screen for askq.

The screen is a Bubble Tea model layered over a session.Session. All chat
state lives in the session; the model only renders snapshots and forwards
user intents.

# Layout

	┌ header: brand and active chat title ─────────────────────┐
	│ saved chats (sidebar) │ transcript viewport              │
	│                       │   You / Assistant turns          │
	│                       │   spinner or error panel         │
	├───────────────────────┴──────────────────────────────────┤
	│ > input box                                              │
	└ status bar: shortcuts or a transient notice ─────────────┘

The sidebar is hidden on terminals narrower than 60 columns.

# Data Flow

Enter starts SubmitQuestion in a tea.Cmd. While it runs, the session
notifies subscribers; Bridge turns each notification into a StateChangedMsg
and the model keeps the snapshot with the highest Version. When
SubmitQuestion returns, the model re-reads the session snapshot, which is
always the final state.

# Key Bindings

	Enter      ask (input) / open chat (sidebar)
	Ctrl+N     start a new chat
	Tab        move focus between sidebar and input
	Ctrl+Y     copy the last answer
	PgUp/PgDn  scroll the transcript
	F1         toggle help
	Ctrl+C     quit
*/
package chat
