// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mfaxmodem/teacher-assistant/internal/model"
)

// Backend paths.
const (
	PathRegister          = "/api/register"
	PathLogin             = "/api/login"
	PathConversations     = "/api/conversations"
	PathStartConversation = "/api/start_conversation"
	PathMessages          = "/api/messages"
	PathChat              = "/api/chat"
	PathFeedback          = "/api/feedback"
	PathHealth            = "/health"
)

// =============================================================================
// AUTHENTICATION
// =============================================================================

type userEnvelope struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
}

// Register creates an account. A duplicate username yields a 400 whose
// detail is the server's message.
func (c *Client) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	var out userEnvelope
	if err := c.Call(ctx, http.MethodPost, PathRegister, reg, &out); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

// Login exchanges credentials for the user's profile. Bad credentials
// yield a 401.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.User, error) {
	var out userEnvelope
	if err := c.Call(ctx, http.MethodPost, PathLogin, creds, &out); err != nil {
		return model.User{}, err
	}
	if !out.User.Valid() {
		return model.User{}, &TransportError{Op: "POST " + PathLogin, Err: fmt.Errorf("%w: missing user id", ErrMalformedResponse)}
	}
	return out.User, nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ListConversations returns the user's conversations, newest first.
func (c *Client) ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error) {
	var out []model.Conversation
	path := PathConversations + "/" + strconv.FormatInt(userID, 10)
	if err := c.Call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Conversation{}
	}
	return out, nil
}

// StartConversation creates a conversation titled from firstMessage and
// returns its id.
func (c *Client) StartConversation(ctx context.Context, userID int64, firstMessage string) (string, error) {
	body := struct {
		UserID       int64  `json:"user_id"`
		FirstMessage string `json:"first_message"`
	}{userID, firstMessage}

	var out struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := c.Call(ctx, http.MethodPost, PathStartConversation, body, &out); err != nil {
		return "", err
	}
	if out.ConversationID == "" {
		return "", &TransportError{Op: "POST " + PathStartConversation, Err: fmt.Errorf("%w: missing conversation_id", ErrMalformedResponse)}
	}
	return out.ConversationID, nil
}

// DeleteConversation removes a conversation owned by userID. A missing
// conversation yields a 404.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string, userID int64) error {
	body := struct {
		UserID int64 `json:"user_id"`
	}{userID}
	return c.Call(ctx, http.MethodDelete, PathConversations+"/"+url.PathEscape(conversationID), body, nil)
}

// =============================================================================
// MESSAGES
// =============================================================================

// ListMessages fetches one page of history. The backend pages newest-first
// but returns each page oldest-first.
func (c *Client) ListMessages(ctx context.Context, conversationID string, page, limit int) ([]model.Message, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	path := PathMessages + "/" + url.PathEscape(conversationID) + "?" + q.Encode()

	var out []model.Message
	if err := c.Call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return model.Normalize(out), nil
}

// Chat posts a user message and returns the streamed assistant reply. The
// body is UTF-8 text ending with an id marker; the caller must close it.
func (c *Client) Chat(ctx context.Context, conversationID, message string) (io.ReadCloser, error) {
	body := struct {
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
	}{conversationID, message}
	return c.Stream(ctx, http.MethodPost, PathChat, body)
}

// =============================================================================
// FEEDBACK & HEALTH
// =============================================================================

// SendFeedback records a rating. The backend keeps one rating per
// message and user, replacing any earlier one.
func (c *Client) SendFeedback(ctx context.Context, fb model.Feedback) error {
	return c.Call(ctx, http.MethodPost, PathFeedback, fb, nil)
}

// Health checks that the backend is up.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.Call(ctx, http.MethodGet, PathHealth, nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return &TransportError{Op: "GET " + PathHealth, Err: fmt.Errorf("unexpected status %q", out.Status)}
	}
	return nil
}
