// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/conversation"
	"github.com/mfaxmodem/teacher-assistant/internal/feedback"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/pager"
	"github.com/mfaxmodem/teacher-assistant/internal/storage"
	"github.com/mfaxmodem/teacher-assistant/internal/stream"
)

// Context is one signed-in user's chat state. It is created by Manager
// and must not be used after Logout.
type Context struct {
	ID   string
	User model.User

	Conversations *conversation.Store
	Thread        *pager.Pager
	Stream        *stream.Session
	Feedback      *feedback.Submitter

	profiles *storage.ProfileStore
	log      *zap.Logger

	mu           sync.Mutex
	startTime    time.Time
	lastActivity time.Time
}

func newContext(m *Manager, user model.User) *Context {
	log := m.log.With(zap.Int64("user_id", user.ID))
	now := time.Now()

	convs := conversation.NewStore(m.backend, log)
	thread := pager.New(m.backend, m.pageSize, pager.WithLogger(log), pager.WithMetrics(m.metrics))

	return &Context{
		ID:            uuid.NewString(),
		User:          user,
		Conversations: convs,
		Thread:        thread,
		Stream: stream.NewSession(stream.Config{
			Chat:          m.backend,
			Conversations: convs,
			Thread:        thread,
			UserID:        user.ID,
			ErrorMessage:  m.errText,
			Logger:        log,
			Metrics:       m.metrics,
			Observer:      m.notify,
		}),
		Feedback:     feedback.NewSubmitter(m.backend, user.ID, log, m.metrics),
		profiles:     m.profiles,
		log:          log,
		startTime:    now,
		lastActivity: now,
	}
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// Refresh re-lists the user's conversations.
func (c *Context) Refresh(ctx context.Context) ([]model.Conversation, error) {
	c.touch()
	return c.Conversations.List(ctx, c.User.ID)
}

// Open selects a conversation and loads its most recent page.
func (c *Context) Open(ctx context.Context, conversationID string) ([]model.Message, error) {
	c.touch()
	c.Conversations.Select(conversationID)
	c.Thread.Reset(conversationID)
	c.remember(ctx, conversationID)
	return c.Thread.LoadNextPage(ctx)
}

// ResumeLast opens the conversation the user had open last time, if it
// still exists. It reports whether one was opened.
func (c *Context) ResumeLast(ctx context.Context) (bool, error) {
	if c.profiles == nil {
		return false, nil
	}
	id, err := c.profiles.LastConversation(ctx, c.User.ID)
	if err != nil || id == "" {
		return false, err
	}
	if _, ok := c.Conversations.Lookup(id); !ok {
		return false, nil
	}
	if _, err := c.Open(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// LoadOlder loads the next older page of the open conversation.
func (c *Context) LoadOlder(ctx context.Context) ([]model.Message, error) {
	c.touch()
	return c.Thread.LoadNextPage(ctx)
}

// NewChat clears the selection so the next Send starts a conversation.
func (c *Context) NewChat() {
	c.touch()
	c.Conversations.ClearSelection()
	c.Thread.Reset("")
}

// Delete removes a conversation and re-lists. Deleting the open
// conversation also clears the thread.
func (c *Context) Delete(ctx context.Context, conversationID string) error {
	c.touch()
	wasSelected, err := c.Conversations.Delete(ctx, conversationID, c.User.ID)
	if err != nil {
		return err
	}
	if wasSelected {
		c.Thread.Reset("")
		c.remember(ctx, "")
	}
	_, err = c.Conversations.List(ctx, c.User.ID)
	return err
}

// =============================================================================
// MESSAGES
// =============================================================================

// Send sends text in the open conversation, starting one if needed.
func (c *Context) Send(ctx context.Context, text string) (stream.Result, error) {
	c.touch()
	res, err := c.Stream.Send(ctx, text)
	if err == nil && res.Created {
		c.remember(ctx, res.ConversationID)
	}
	return res, err
}

// Rate submits feedback for the thread message with the given render key.
func (c *Context) Rate(ctx context.Context, key string, rating model.Rating) error {
	c.touch()
	msg, _ := c.Thread.Message(key)
	return c.Feedback.Submit(ctx, msg.ID, rating)
}

// =============================================================================
// ACTIVITY
// =============================================================================

// Status describes a context for display.
type Status struct {
	SessionID      string
	User           model.User
	ConversationID string
	StartTime      time.Time
	Duration       time.Duration
	IdleTime       time.Duration
	Streaming      bool
}

// Status returns the context's current status.
func (c *Context) Status() Status {
	convID, _ := c.Conversations.Selected()

	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	return Status{
		SessionID:      c.ID,
		User:           c.User,
		ConversationID: convID,
		StartTime:      c.startTime,
		Duration:       now.Sub(c.startTime),
		IdleTime:       now.Sub(c.lastActivity),
		Streaming:      c.Stream.Busy(),
	}
}

func (c *Context) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

func (c *Context) remember(ctx context.Context, conversationID string) {
	if c.profiles == nil {
		return
	}
	if err := c.profiles.SetLastConversation(ctx, c.User.ID, conversationID); err != nil {
		c.log.Warn("last conversation not saved", zap.Error(err))
	}
}

func (c *Context) close() {
	c.Stream.Cancel()
	c.Conversations.Reset()
	c.Thread.Reset("")
	c.Feedback.Forget()
}
