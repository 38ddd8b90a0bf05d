// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat session state container.
//
// A Session owns the pending input, the active transcript, the saved
// conversations, the loading flag and the last error. It is mutated only
// through its operations and hands out deep-copied State snapshots.
//
// # Key Types
//
//   - Session: the state container and request/response cycle
//   - State: immutable snapshot delivered to subscribers
//   - Completer: the completion endpoint (satisfied by *cloud.Client)
//
// # Usage
//
//	sess := session.New(client)
//	unsubscribe := sess.Subscribe(func(st session.State) { render(st) })
//	defer unsubscribe()
//
//	if err := sess.SubmitQuestion(ctx, "What is AI?"); err != nil {
//	    // st.LastError already carries the message
//	}
//
// # Concurrency
//
// At most one submission is in flight per Session. A second submission
// while loading returns ErrBusy and leaves the state unchanged. The network
// call runs without holding the lock, so Snapshot and the other operations
// stay responsive while a request is pending.
package session
