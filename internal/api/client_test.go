// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/server"
	"github.com/mfaxmodem/teacher-assistant/internal/telemetry"
)

func newTestClient(t *testing.T, opts ...server.Option) (*Client, *server.Server) {
	t.Helper()
	srv := server.New(opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: ts.URL, Timeout: 5 * time.Second}), srv
}

// =============================================================================
// CORE TESTS
// =============================================================================

func TestCall_StatusErrorUsesDetail(t *testing.T) {
	client, srv := newTestClient(t)
	srv.Fail(http.MethodGet, "/health", http.StatusServiceUnavailable, "maintenance")

	err := client.Health(context.Background())
	require.Error(t, err)

	var se *HTTPStatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
	assert.Equal(t, "maintenance", se.Error())
}

func TestCall_StatusErrorFallback(t *testing.T) {
	client, srv := newTestClient(t)
	srv.Fail(http.MethodGet, "/health", http.StatusBadGateway, "")

	err := client.Health(context.Background())
	assert.EqualError(t, err, "HTTP error! status: 502")
	assert.Equal(t, 502, StatusOf(err))
}

func TestCall_NonStringDetailIsKept(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":[{"msg":"field required"}]}`)
	}))
	defer ts.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: ts.URL})
	err := client.Call(context.Background(), http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field required")
}

func TestCall_NonJSONErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: ts.URL})
	err := client.Call(context.Background(), http.MethodGet, "/x", nil, nil)
	assert.EqualError(t, err, "HTTP error! status: 500")
}

func TestCall_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	err := client.Health(context.Background())

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, StatusOf(err))
}

func TestCall_MalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer ts.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: ts.URL})
	var out map[string]any
	err := client.Call(context.Background(), http.MethodGet, "/x", nil, &out)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestCall_SendsJSON(t *testing.T) {
	var gotType, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		io.WriteString(w, "{}")
	}))
	defer ts.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: ts.URL + "/"})
	require.NoError(t, client.SendFeedback(context.Background(), model.Feedback{MessageID: 5, UserID: 2, Rating: model.RatingUp}))
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"message_id":5,"user_id":2,"rating":1}`, gotBody)
}

func TestCall_NoRetry(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: ts.URL})
	_ = client.Health(context.Background())
	assert.Equal(t, 1, calls)
}

func TestCall_RateLimiterHonoursContext(t *testing.T) {
	client, _ := newTestClient(t)
	limited := NewClientWithConfig(&ClientConfig{BaseURL: client.BaseURL(), RequestsPerSecond: 0.001, Burst: 1})

	require.NoError(t, limited.Health(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := limited.Health(ctx)
	var te *TransportError
	assert.True(t, errors.As(err, &te))
}

func TestCall_RecordsMetrics(t *testing.T) {
	srv := server.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	m := telemetry.New()
	client := NewClientWithConfig(&ClientConfig{BaseURL: ts.URL, Metrics: m})
	require.NoError(t, client.Health(context.Background()))

	sum, err := m.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Requests)
	assert.Zero(t, sum.FailedRequests)
}

func TestRoute(t *testing.T) {
	tests := map[string]string{
		"/api/messages/abc?page=2&limit=20": "/api/messages",
		"/api/chat":                         "/api/chat",
		"/health":                           "/health",
		"/api/conversations/12":             "/api/conversations",
	}
	for in, want := range tests {
		assert.Equal(t, want, route(in), in)
	}
}

// =============================================================================
// ENDPOINT TESTS
// =============================================================================

func TestRegisterLogin(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	reg := model.Registration{Username: "0912", Password: "secret", Experience: 4, Subject: "physics", Field: "science"}
	user, err := client.Register(ctx, reg)
	require.NoError(t, err)
	assert.True(t, user.Valid())

	_, err = client.Register(ctx, reg)
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = client.Login(ctx, model.Credentials{Username: "0912", Password: "nope"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotEmpty(t, Message(err))

	got, err := client.Login(ctx, model.Credentials{Username: "0912", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "physics", got.Subject)
}

func TestConversationLifecycle(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	list, err := client.ListConversations(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	first, err := client.StartConversation(ctx, 3, "first question")
	require.NoError(t, err)
	second, err := client.StartConversation(ctx, 3, "second question")
	require.NoError(t, err)

	list, err = client.ListConversations(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, "first question", list[1].Title)

	require.NoError(t, client.DeleteConversation(ctx, first, 3))
	err = client.DeleteConversation(ctx, first, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMessages_MapsModelRole(t *testing.T) {
	client, srv := newTestClient(t)
	conv := srv.SeedConversation(1, "t", "q", "a")

	msgs, err := client.ListMessages(context.Background(), conv, 1, 20)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.True(t, msgs[1].HasID())
}

func TestChat_ReturnsRawBody(t *testing.T) {
	client, srv := newTestClient(t, server.WithReplier(func(string) []string { return []string{"a", "b"} }))
	conv := srv.SeedConversation(1, "t")

	body, err := client.Chat(context.Background(), conv, "hello")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "ab<!--ID:2-->", string(data))
}

func TestChat_StatusErrorBeforeBody(t *testing.T) {
	client, _ := newTestClient(t)

	body, err := client.Chat(context.Background(), "missing", "hello")
	assert.Nil(t, body)
	assert.ErrorIs(t, err, ErrNotFound)
}
