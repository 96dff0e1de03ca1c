// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/server"
)

func setup(t *testing.T) (*Store, *server.Server, model.User) {
	t.Helper()
	srv := server.New()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	user, err := srv.SeedUser("teacher", "secret")
	require.NoError(t, err)

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: ts.URL, Timeout: 5 * time.Second})
	return NewStore(client, nil), srv, user
}

func TestStore_ListReplacesWholesale(t *testing.T) {
	store, srv, user := setup(t)
	ctx := context.Background()

	srv.SeedConversation(user.ID, "first")
	convs, err := store.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)

	srv.SeedConversation(user.ID, "second")
	convs, err = store.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "second", convs[0].Title, "newest first")
	assert.Equal(t, convs, store.Conversations())
}

func TestStore_ListFailureKeepsList(t *testing.T) {
	store, srv, user := setup(t)
	ctx := context.Background()

	srv.SeedConversation(user.ID, "kept")
	_, err := store.List(ctx, user.ID)
	require.NoError(t, err)

	srv.Fail(http.MethodGet, "/api/conversations", http.StatusInternalServerError, "")
	_, err = store.List(ctx, user.ID)
	require.Error(t, err)
	assert.Equal(t, 500, api.StatusOf(err))
	assert.Len(t, store.Conversations(), 1)
}

func TestStore_CreateDoesNotTouchList(t *testing.T) {
	store, _, user := setup(t)
	ctx := context.Background()

	id, err := store.Create(ctx, user.ID, "How do I plan a lesson?")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Empty(t, store.Conversations())

	_, err = store.List(ctx, user.ID)
	require.NoError(t, err)
	conv, ok := store.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "How do I plan a lesson?", conv.Title)
}

func TestStore_CreateFailureIsTyped(t *testing.T) {
	store, srv, user := setup(t)
	srv.Fail(http.MethodPost, "/api/start_conversation", http.StatusServiceUnavailable, "down")

	_, err := store.Create(context.Background(), user.ID, "hi")
	require.Error(t, err)

	var cce *api.ConversationCreateError
	assert.True(t, errors.As(err, &cce))
	assert.Equal(t, http.StatusServiceUnavailable, api.StatusOf(err))
}

func TestStore_DeleteClearsSelection(t *testing.T) {
	store, srv, user := setup(t)
	ctx := context.Background()

	a := srv.SeedConversation(user.ID, "a")
	b := srv.SeedConversation(user.ID, "b")

	store.Select(a)
	wasSelected, err := store.Delete(ctx, b, user.ID)
	require.NoError(t, err)
	assert.False(t, wasSelected)
	assert.True(t, store.IsSelected(a))

	wasSelected, err = store.Delete(ctx, a, user.ID)
	require.NoError(t, err)
	assert.True(t, wasSelected)
	_, ok := store.Selected()
	assert.False(t, ok)

	convs, err := store.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestStore_DeleteMissing(t *testing.T) {
	store, _, user := setup(t)
	store.Select("nope")

	_, err := store.Delete(context.Background(), "nope", user.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrNotFound))
	assert.True(t, store.IsSelected("nope"), "selection kept on failure")
}

func TestStore_SelectAndReset(t *testing.T) {
	store, srv, user := setup(t)
	srv.SeedConversation(user.ID, "x")
	_, err := store.List(context.Background(), user.ID)
	require.NoError(t, err)

	store.Select("abc")
	id, ok := store.Selected()
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	store.ClearSelection()
	assert.False(t, store.IsSelected("abc"))

	store.Select("abc")
	store.Reset()
	_, ok = store.Selected()
	assert.False(t, ok)
	assert.Empty(t, store.Conversations())
}

func TestStore_ConversationsIsCopy(t *testing.T) {
	store, srv, user := setup(t)
	srv.SeedConversation(user.ID, "orig")
	_, err := store.List(context.Background(), user.ID)
	require.NoError(t, err)

	convs := store.Conversations()
	convs[0].Title = "changed"
	assert.Equal(t, "orig", store.Conversations()[0].Title)
}
