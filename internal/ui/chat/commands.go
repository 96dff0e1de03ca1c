// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/session"
)

// requestTimeout bounds every non-streaming command.
const requestTimeout = 30 * time.Second

// HealthChecker is the part of the API client the screen pings on start.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

func refreshCmd(sc *session.Context) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		convs, err := sc.Refresh(ctx)
		return ConversationsMsg{Conversations: convs, Err: err}
	}
}

func openCmd(sc *session.Context, conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := sc.Open(ctx, conversationID)
		return OpenedMsg{ConversationID: conversationID, Err: err}
	}
}

func resumeCmd(sc *session.Context) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		convs, err := sc.Refresh(ctx)
		if err != nil {
			return ConversationsMsg{Err: err}
		}
		if _, err := sc.ResumeLast(ctx); err != nil {
			return ConversationsMsg{Conversations: convs, Err: err}
		}
		return ConversationsMsg{Conversations: convs}
	}
}

func olderCmd(sc *session.Context) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msgs, err := sc.LoadOlder(ctx)
		return OlderMsg{Count: len(msgs), Err: err}
	}
}

// sendCmd has no timeout; Esc cancels it through the streaming session.
func sendCmd(sc *session.Context, text string) tea.Cmd {
	return func() tea.Msg {
		res, err := sc.Send(context.Background(), text)
		return SendDoneMsg{Result: res, Err: err}
	}
}

func rateCmd(sc *session.Context, msg model.Message, rating model.Rating) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := sc.Rate(ctx, msg.Key, rating)
		return RatedMsg{MessageID: msg.ID, Rating: rating, Err: err}
	}
}

func deleteCmd(sc *session.Context, conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return DeletedMsg{ConversationID: conversationID, Err: sc.Delete(ctx, conversationID)}
	}
}

func logoutCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return LoggedOutMsg{Err: mgr.Logout(ctx)}
	}
}

func healthCmd(hc HealthChecker) tea.Cmd {
	if hc == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return HealthMsg{Err: hc.Health(ctx)}
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// Command is a parsed slash command.
type Command struct {
	Name string
	Arg  string
}

// commandHelp lists the slash commands in display order.
var commandHelp = [][2]string{
	{"/new", "start a new chat"},
	{"/list", "refresh conversations"},
	{"/open <n|id>", "open a conversation"},
	{"/delete <n|id>", "delete a conversation"},
	{"/up, /down", "rate the latest reply"},
	{"/more", "load older messages"},
	{"/logout", "sign out"},
	{"/quit", "quit"},
}

// ParseCommand parses input starting with "/". ok is false for ordinary
// text, which is sent as a message. A leading "//" escapes the slash.
func ParseCommand(input string) (Command, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") || strings.HasPrefix(input, "//") || len(input) == 1 {
		return Command{}, false
	}
	name, arg, _ := strings.Cut(input[1:], " ")
	return Command{Name: strings.ToLower(name), Arg: strings.TrimSpace(arg)}, true
}

// MessageText returns the text to send for non-command input.
func MessageText(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "//") {
		return input[1:]
	}
	return input
}
