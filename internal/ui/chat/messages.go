// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/askq/internal/config"
	"github.com/jeranaias/askq/internal/session"
)

// StateChangedMsg carries a session snapshot delivered by the subscriber
// bridge.
type StateChangedMsg struct {
	State session.State
}

// submitDoneMsg reports that a SubmitQuestion call returned.
type submitDoneMsg struct {
	err error
}

// copyResultMsg reports the outcome of a clipboard write.
type copyResultMsg struct {
	chars int
	err   error
}

// ConfigReloadedMsg is sent when the config file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// clearNoticeMsg hides the status notice with the given id.
type clearNoticeMsg struct {
	id int
}
