// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfaxmodem/teacher-assistant/internal/stream"
)

// =============================================================================
// UPDATE RELAY
// =============================================================================

// Relay hands streaming updates from the session goroutine to the update
// loop. It holds at most one pending update: a newer one replaces it. The
// screen re-renders from the thread, so only the latest update matters.
type Relay struct {
	ch chan stream.Update
}

// NewRelay creates an empty relay.
func NewRelay() *Relay {
	return &Relay{ch: make(chan stream.Update, 1)}
}

// Push offers u, dropping any update not yet consumed. It never blocks.
func (r *Relay) Push(u stream.Update) {
	for {
		select {
		case r.ch <- u:
			return
		default:
		}
		select {
		case <-r.ch:
		default:
		}
	}
}

// Wait returns a command that delivers the next update.
func (r *Relay) Wait() tea.Cmd {
	return func() tea.Msg {
		return StreamUpdateMsg{Update: <-r.ch}
	}
}
