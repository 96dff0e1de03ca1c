// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream sends a user message and assembles the streamed assistant
// reply.
//
// The reply body is plain UTF-8 text with no framing except one trailing
// marker, <!--ID:n-->, that carries the id the backend stored the reply
// under. ExtractMessageID is the only code that parses it.
//
// A Session moves through these states for every send:
//
//	Idle -> Resolving -> Sending -> Streaming -> Finalizing -> Idle
//
// Any failure after the user's message was shown moves it to Errored, which
// replaces the reply with a fixed error message and returns to Idle.
package stream
