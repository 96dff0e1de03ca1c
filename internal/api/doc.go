// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the teacher-assistant backend.
//
// Client is the only component that talks to the network. Call decodes JSON
// responses; Stream returns a raw body for replies that arrive in chunks.
// Typed wrappers cover every backend endpoint.
//
// # Errors
//
//   - *TransportError: the request never completed or the body was unreadable
//   - *HTTPStatusError: non-2xx; Error() is the server detail or
//     "HTTP error! status: N"
//   - *StreamInterruptError: a reply failed part way through
//   - *ConversationCreateError: a new chat could not be created before sending
//
// # Usage
//
//	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: url})
//	user, err := client.Login(ctx, model.Credentials{Username: u, Password: p})
//	if errors.Is(err, api.ErrUnauthorized) {
//	    fmt.Println(api.Message(err))
//	}
package api
