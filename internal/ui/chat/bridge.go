// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/askq/internal/session"
)

// Bridge subscribes to sess and forwards every snapshot to send as a
// StateChangedMsg. send is normally (*tea.Program).Send.
//
// Delivery happens on a fresh goroutine: session transitions triggered from
// inside Update would otherwise block on the program's message channel.
// Snapshots may therefore arrive out of order; Model keeps the one with the
// highest Version.
func Bridge(sess *session.Session, send func(tea.Msg)) (stop func()) {
	return sess.Subscribe(func(st session.State) {
		go send(StateChangedMsg{State: st})
	})
}
