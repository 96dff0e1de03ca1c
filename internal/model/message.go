// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// backendAssistantRole is the name the backend stores assistant rows under.
const backendAssistantRole = "model"

// ParseRole maps a backend role name onto a Role.
// Unknown values are kept verbatim so they still render.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser
	case "assistant", backendAssistantRole:
		return RoleAssistant
	default:
		return Role(s)
	}
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// UnmarshalJSON accepts backend role names ("model") as well as canonical ones.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single entry in a conversation thread.
//
// ID is the backend identifier and is zero until the server has persisted
// the message. Only messages with an ID can receive feedback.
type Message struct {
	ID      int64  `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Client-only state
	Key       string    `json:"-"` // stable render key for optimistic entries
	Timestamp time.Time `json:"-"`
	Streaming bool      `json:"-"`
	Failed    bool      `json:"-"`
}

// NewMessage creates a new client-side message with a render key.
func NewMessage(role Role, content string) Message {
	return Message{
		Key:       uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates the optimistic entry for text the user just sent.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an empty assistant placeholder that is
// filled as a reply streams in.
func NewAssistantMessage() Message {
	msg := NewMessage(RoleAssistant, "")
	msg.Streaming = true
	return msg
}

// HasID reports whether the backend has assigned an identifier.
func (m Message) HasID() bool {
	return m.ID > 0
}

// RenderKey returns the key used to identify the message in a rendered list.
func (m Message) RenderKey() string {
	if m.Key != "" {
		return m.Key
	}
	if m.HasID() {
		return "msg_" + strconv.FormatInt(m.ID, 10)
	}
	return ""
}

// IsUser returns true if this is a user message.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant returns true if this is an assistant message.
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// Normalize fills client-only fields on messages decoded from the backend.
func Normalize(msgs []Message) []Message {
	for i := range msgs {
		if msgs[i].Key == "" {
			msgs[i].Key = msgs[i].RenderKey()
		}
	}
	return msgs
}
