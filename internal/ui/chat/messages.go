// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/mfaxmodem/teacher-assistant/internal/config"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/stream"
)

// =============================================================================
// RESULT MESSAGES
// =============================================================================

// ConversationsMsg carries a refreshed conversation list.
type ConversationsMsg struct {
	Conversations []model.Conversation
	Err           error
}

// OpenedMsg reports that a conversation's first page was loaded.
type OpenedMsg struct {
	ConversationID string
	Err            error
}

// OlderMsg reports an older page load.
type OlderMsg struct {
	Count int
	Err   error
}

// SendDoneMsg reports the end of a send.
type SendDoneMsg struct {
	Result stream.Result
	Err    error
}

// StreamUpdateMsg carries the latest streaming update.
type StreamUpdateMsg struct {
	Update stream.Update
}

// RatedMsg reports a feedback submission.
type RatedMsg struct {
	MessageID int64
	Rating    model.Rating
	Err       error
}

// DeletedMsg reports a conversation deletion.
type DeletedMsg struct {
	ConversationID string
	Err            error
}

// LoggedOutMsg reports logout.
type LoggedOutMsg struct {
	Err error
}

// HealthMsg reports the backend health check.
type HealthMsg struct {
	Err error
}

// ConfigMsg applies a reloaded configuration to the running screen.
type ConfigMsg struct {
	UI       config.UIConfig
	Greeting string
}
