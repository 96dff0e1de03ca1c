// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// TransportError is a network failure or a response that could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is returned for any non-2xx response. Detail carries the
// server's "detail" field, or a generic message naming the status.
type HTTPStatusError struct {
	Status int
	Detail string
}

func (e *HTTPStatusError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fallbackDetail(e.Status)
}

// Is matches any HTTPStatusError with the same status, so callers can use
// errors.Is(err, api.ErrNotFound).
func (e *HTTPStatusError) Is(target error) bool {
	t, ok := target.(*HTTPStatusError)
	return ok && t.Status == e.Status
}

// StreamInterruptError reports a stream that failed after it had started.
// Partial holds the text decoded before the failure.
type StreamInterruptError struct {
	Partial string
	Err     error
}

func (e *StreamInterruptError) Error() string {
	return fmt.Sprintf("stream interrupted after %d bytes: %v", len(e.Partial), e.Err)
}

func (e *StreamInterruptError) Unwrap() error {
	return e.Err
}

// ConversationCreateError wraps a failure to lazily create a conversation
// before the first message of a new chat.
type ConversationCreateError struct {
	Err error
}

func (e *ConversationCreateError) Error() string {
	return "create conversation: " + e.Err.Error()
}

func (e *ConversationCreateError) Unwrap() error {
	return e.Err
}

// Sentinel errors for easy checking.
var (
	ErrBadRequest   = &HTTPStatusError{Status: 400}
	ErrUnauthorized = &HTTPStatusError{Status: 401}
	ErrNotFound     = &HTTPStatusError{Status: 404}

	// ErrMalformedResponse is wrapped when a 2xx body lacks required fields.
	ErrMalformedResponse = errors.New("malformed response")
)

func fallbackDetail(status int) string {
	return fmt.Sprintf("HTTP error! status: %d", status)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// Message returns the text best suited for showing err to a user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return strings.TrimSpace(err.Error())
}
