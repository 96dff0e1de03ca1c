// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
	"github.com/mfaxmodem/teacher-assistant/internal/feedback"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/server"
	"github.com/mfaxmodem/teacher-assistant/internal/storage"
	"github.com/mfaxmodem/teacher-assistant/internal/stream"
)

func newManager(t *testing.T) (*Manager, *server.Server, *storage.ProfileStore) {
	t.Helper()
	srv := server.New()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	profiles, err := storage.OpenProfileStore(filepath.Join(t.TempDir(), "profile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { profiles.Close() })

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: ts.URL, Timeout: 5 * time.Second})
	mgr := NewManager(Config{
		Backend:      client,
		Profiles:     profiles,
		PageSize:     3,
		ErrorMessage: "failed",
	})
	return mgr, srv, profiles
}

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

func TestManager_NotLoggedIn(t *testing.T) {
	mgr, _, _ := newManager(t)
	_, err := mgr.Current()
	assert.True(t, errors.Is(err, ErrNotLoggedIn))

	_, err = mgr.Resume(context.Background())
	assert.True(t, errors.Is(err, storage.ErrNoProfile))
}

func TestManager_RegisterLogsIn(t *testing.T) {
	mgr, _, profiles := newManager(t)
	ctx := context.Background()

	sc, err := mgr.Register(ctx, model.Registration{
		Username: "  sara ", Password: "pw", Experience: 3, Subject: "علوم", Field: "متوسطه",
	})
	require.NoError(t, err)
	assert.Equal(t, "sara", sc.User.Username)
	assert.Equal(t, "علوم", sc.User.Subject)
	assert.NotEmpty(t, sc.ID)

	current, err := mgr.Current()
	require.NoError(t, err)
	assert.Same(t, sc, current)

	saved, err := profiles.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sc.User, saved)

	// Duplicate usernames are refused by the backend.
	_, err = mgr.Register(ctx, model.Registration{Username: "sara", Password: "x"})
	assert.True(t, errors.Is(err, api.ErrBadRequest))
}

func TestManager_LoginFailure(t *testing.T) {
	mgr, srv, _ := newManager(t)
	_, err := srv.SeedUser("ali", "right")
	require.NoError(t, err)

	_, err = mgr.Login(context.Background(), model.Credentials{Username: "ali", Password: "wrong"})
	assert.True(t, errors.Is(err, api.ErrUnauthorized))
	_, err = mgr.Current()
	assert.True(t, errors.Is(err, ErrNotLoggedIn))

	_, err = mgr.Login(context.Background(), model.Credentials{Username: "", Password: "x"})
	assert.Error(t, err)
}

func TestManager_ResumeAndLogout(t *testing.T) {
	mgr, srv, profiles := newManager(t)
	ctx := context.Background()
	_, err := srv.SeedUser("ali", "pw")
	require.NoError(t, err)

	first, err := mgr.Login(ctx, model.Credentials{Username: "ali", Password: "pw"})
	require.NoError(t, err)

	// A second manager over the same profile store resumes without a login.
	other := NewManager(Config{Backend: mgr.backend, Profiles: profiles})
	resumed, err := other.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.User, resumed.User)
	assert.NotEqual(t, first.ID, resumed.ID)

	first.Conversations.Select("x")
	require.NoError(t, mgr.Logout(ctx))
	_, err = mgr.Current()
	assert.True(t, errors.Is(err, ErrNotLoggedIn))
	_, selected := first.Conversations.Selected()
	assert.False(t, selected, "logout clears conversation state")

	_, err = profiles.Load(ctx)
	assert.True(t, errors.Is(err, storage.ErrNoProfile))
}

// =============================================================================
// CONTEXT OPERATIONS
// =============================================================================

func login(t *testing.T, mgr *Manager, srv *server.Server) *Context {
	t.Helper()
	_, err := srv.SeedUser("teacher", "pw")
	require.NoError(t, err)
	sc, err := mgr.Login(context.Background(), model.Credentials{Username: "teacher", Password: "pw"})
	require.NoError(t, err)
	return sc
}

func TestContext_FullFlow(t *testing.T) {
	mgr, srv, _ := newManager(t)
	sc := login(t, mgr, srv)
	ctx := context.Background()

	var mu sync.Mutex
	var states []stream.State
	mgr.SetObserver(func(u stream.Update) {
		mu.Lock()
		states = append(states, u.State)
		mu.Unlock()
	})

	sc.NewChat()
	res, err := sc.Send(ctx, "lesson plan for fractions")
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.True(t, res.Created)

	mu.Lock()
	assert.Contains(t, states, stream.StateStreaming)
	mu.Unlock()

	convs := sc.Conversations.Conversations()
	require.Len(t, convs, 1)

	// Rate the reply by its render key.
	require.NoError(t, sc.Rate(ctx, res.Reply.Key, model.RatingUp))
	got, ok := srv.Rating(res.Reply.ID, sc.User.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got)
	assert.Equal(t, model.RatingUp, sc.Feedback.Rating(res.Reply.ID))

	// The user's message has no id and cannot be rated.
	userMsg := sc.Thread.Messages()[0]
	assert.True(t, errors.Is(sc.Rate(ctx, userMsg.Key, model.RatingUp), feedback.ErrNoMessageID))

	// Reopen from the backend.
	msgs, err := sc.Open(ctx, res.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, res.Reply.Content, msgs[1].Content)
	assert.Equal(t, res.Reply.ID, msgs[1].ID)

	status := sc.Status()
	assert.Equal(t, res.ConversationID, status.ConversationID)
	assert.False(t, status.Streaming)
}

func TestContext_PagingOlder(t *testing.T) {
	mgr, srv, _ := newManager(t)
	sc := login(t, mgr, srv)
	ctx := context.Background()

	id := srv.SeedConversation(sc.User.ID, "long", "q1", "a1", "q2", "a2", "q3")
	_, err := sc.Refresh(ctx)
	require.NoError(t, err)

	msgs, err := sc.Open(ctx, id)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
	assert.True(t, sc.Thread.HasMore())

	older, err := sc.LoadOlder(ctx)
	require.NoError(t, err)
	assert.Len(t, older, 2)
	assert.False(t, sc.Thread.HasMore())
	assert.Equal(t, "q1", sc.Thread.Messages()[0].Content)
}

func TestContext_DeleteSelected(t *testing.T) {
	mgr, srv, _ := newManager(t)
	sc := login(t, mgr, srv)
	ctx := context.Background()

	keep := srv.SeedConversation(sc.User.ID, "keep", "hello")
	drop := srv.SeedConversation(sc.User.ID, "drop", "bye")
	_, err := sc.Refresh(ctx)
	require.NoError(t, err)

	_, err = sc.Open(ctx, drop)
	require.NoError(t, err)
	require.NotEmpty(t, sc.Thread.Messages())

	require.NoError(t, sc.Delete(ctx, drop))
	_, selected := sc.Conversations.Selected()
	assert.False(t, selected)
	assert.Empty(t, sc.Thread.Messages())
	convs := sc.Conversations.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, keep, convs[0].ID)

	srv.Fail(http.MethodDelete, "/api/conversations", http.StatusNotFound, "گفتگو یافت نشد")
	assert.True(t, errors.Is(sc.Delete(ctx, keep), api.ErrNotFound))
}

func TestContext_ResumeLast(t *testing.T) {
	mgr, srv, profiles := newManager(t)
	sc := login(t, mgr, srv)
	ctx := context.Background()

	id := srv.SeedConversation(sc.User.ID, "t", "hi")
	_, err := sc.Refresh(ctx)
	require.NoError(t, err)
	_, err = sc.Open(ctx, id)
	require.NoError(t, err)

	other := NewManager(Config{Backend: mgr.backend, Profiles: profiles})
	resumed, err := other.Resume(ctx)
	require.NoError(t, err)
	_, err = resumed.Refresh(ctx)
	require.NoError(t, err)

	opened, err := resumed.ResumeLast(ctx)
	require.NoError(t, err)
	assert.True(t, opened)
	assert.True(t, resumed.Conversations.IsSelected(id))
	assert.Len(t, resumed.Thread.Messages(), 1)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{time.Minute, "1m"},
		{90 * time.Second, "1m 30s"},
		{15 * time.Minute, "15m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d))
	}
}
