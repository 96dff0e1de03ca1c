// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the chat client.
//
// These types mirror the backend's JSON payloads and carry the small amount
// of client-only state (optimistic keys, streaming flags) the UI needs.
//
// # Key Types
//
//   - User: The logged-in teacher profile returned by /api/login
//   - Conversation: A titled conversation owned by a user
//   - Message: A single thread entry; ID is zero until the backend assigns one
//   - Role: Message author (user or assistant; backend "model" maps to assistant)
//   - Rating: Feedback value, either +1 or -1
//
// # Usage
//
// Build an optimistic user message and an empty assistant placeholder:
//
//	user := model.NewUserMessage("Hello")
//	reply := model.NewAssistantMessage()
//	reply.Content = accumulated
//	if reply.HasID() {
//	    fmt.Println("persisted as", reply.ID)
//	}
package model
