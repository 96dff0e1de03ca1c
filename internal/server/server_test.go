// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, ts *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHandleHealth(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	resp, body := do(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestRegisterAndLogin(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	reg := map[string]any{"username": "09120000000", "password": "pw", "experience": 3, "subject": "math", "field": "science"}
	resp, _ := do(t, ts, http.MethodPost, "/api/register", reg)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, ts, http.MethodPost, "/api/register", reg)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "detail")

	resp, _ = do(t, ts, http.MethodPost, "/api/login", map[string]string{"username": "09120000000", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = do(t, ts, http.MethodPost, "/api/login", map[string]string{"username": "09120000000", "password": "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		User struct {
			ID      int64  `json:"id"`
			Subject string `json:"subject"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, int64(1), out.User.ID)
	assert.Equal(t, "math", out.User.Subject)
	assert.NotContains(t, string(body), "hash")
}

func TestMessagesPaging(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conv := srv.SeedConversation(1, "t", "m1", "m2", "m3", "m4", "m5")

	type row struct {
		ID      int64  `json:"id"`
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	var page1, page2, page3 []row

	_, body := do(t, ts, http.MethodGet, "/api/messages/"+conv+"?page=1&limit=2", nil)
	require.NoError(t, json.Unmarshal(body, &page1))
	_, body = do(t, ts, http.MethodGet, "/api/messages/"+conv+"?page=2&limit=2", nil)
	require.NoError(t, json.Unmarshal(body, &page2))
	_, body = do(t, ts, http.MethodGet, "/api/messages/"+conv+"?page=3&limit=2", nil)
	require.NoError(t, json.Unmarshal(body, &page3))

	require.Len(t, page1, 2)
	assert.Equal(t, "m4", page1[0].Content)
	assert.Equal(t, "m5", page1[1].Content)
	assert.Equal(t, "model", page1[0].Role)
	require.Len(t, page2, 2)
	assert.Equal(t, "m2", page2[0].Content)
	require.Len(t, page3, 1)
	assert.Equal(t, "m1", page3[0].Content)
}

func TestChatStreamsWithIDMarker(t *testing.T) {
	srv := New(WithReplier(func(string) []string { return []string{"سلام", " دنیا"} }))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conv := srv.SeedConversation(1, "t")
	resp, body := do(t, ts, http.MethodPost, "/api/chat", map[string]string{"conversation_id": conv, "message": "hi"})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
	assert.Equal(t, "سلام دنیا<!--ID:2-->", string(body))
}

func TestChatUnknownConversation(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	resp, _ := do(t, ts, http.MethodPost, "/api/chat", map[string]string{"conversation_id": "nope", "message": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteConversation(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conv := srv.SeedConversation(7, "t", "a")

	resp, _ := do(t, ts, http.MethodDelete, "/api/conversations/"+conv, map[string]int{"user_id": 8})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodDelete, "/api/conversations/"+conv, map[string]int{"user_id": 7})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := do(t, ts, http.MethodGet, "/api/conversations/7", nil)
	assert.JSONEq(t, `[]`, string(body))
}

func TestFeedbackReplaces(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	do(t, ts, http.MethodPost, "/api/feedback", map[string]int{"message_id": 4, "user_id": 1, "rating": 1})
	do(t, ts, http.MethodPost, "/api/feedback", map[string]int{"message_id": 4, "user_id": 1, "rating": -1})

	r, ok := srv.Rating(4, 1)
	require.True(t, ok)
	assert.Equal(t, -1, r)
}

func TestFailIsOneShot(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	srv.Fail(http.MethodGet, "/health", http.StatusServiceUnavailable, "down")

	resp, body := do(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"down"}`, string(body))

	resp, _ = do(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInvalidBodyIs422(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/login", strings.NewReader("{"))
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
