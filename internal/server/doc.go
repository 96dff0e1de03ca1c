// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides an in-memory HTTP backend that speaks the same
// protocol as the teacher-assistant service.
//
// It backs the devserver binary for offline work and the end-to-end tests
// of the api, stream and session packages. Replies are produced by a
// pluggable Replier instead of a language model.
//
// # Endpoints
//
//   - POST   /api/register
//   - POST   /api/login
//   - GET    /api/conversations/{userID}
//   - POST   /api/start_conversation
//   - GET    /api/messages/{conversationID}?page=&limit=
//   - DELETE /api/conversations/{conversationID}
//   - POST   /api/chat (chunked text/plain with a trailing id marker)
//   - POST   /api/feedback
//   - GET    /health
//
// # Usage
//
//	srv := server.New(server.WithLogger(logger))
//	ts := httptest.NewServer(srv.Handler())
//	defer ts.Close()
package server
