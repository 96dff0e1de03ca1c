// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"user", RoleUser},
		{"assistant", RoleAssistant},
		{"model", RoleAssistant},
		{" Model ", RoleAssistant},
		{"system", Role("system")},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseRole(tc.in); got != tc.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestMessage_DecodeBackendRow(t *testing.T) {
	raw := `[{"id":7,"role":"user","content":"hi"},{"id":8,"role":"model","content":"hello"}]`

	var msgs []Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	msgs = Normalize(msgs)

	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[1].Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", msgs[1].Role)
	}
	if !msgs[1].HasID() || msgs[1].ID != 8 {
		t.Errorf("ID = %d, want 8", msgs[1].ID)
	}
	if msgs[0].Key != "msg_7" {
		t.Errorf("Key = %q, want msg_7", msgs[0].Key)
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewAssistantMessage(t *testing.T) {
	msg := NewAssistantMessage()

	if !msg.Streaming {
		t.Error("placeholder should be streaming")
	}
	if msg.HasID() {
		t.Error("placeholder should not have an id")
	}
	if msg.Content != "" {
		t.Errorf("Content = %q, want empty", msg.Content)
	}
	if msg.Key == "" {
		t.Error("placeholder should have a render key")
	}
}

func TestNewUserMessage_UniqueKeys(t *testing.T) {
	a := NewUserMessage("x")
	b := NewUserMessage("x")
	if a.Key == b.Key {
		t.Errorf("keys should differ, both %q", a.Key)
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestTitleFromMessage(t *testing.T) {
	short := "سلام"
	if got := TitleFromMessage(short); got != short {
		t.Errorf("TitleFromMessage(short) = %q", got)
	}

	long := strings.Repeat("ب", 80)
	got := TitleFromMessage(long)
	if n := len([]rune(got)); n != MaxTitleRunes {
		t.Errorf("title runes = %d, want %d", n, MaxTitleRunes)
	}
}

func TestFindConversation(t *testing.T) {
	list := []Conversation{{ID: "a"}, {ID: "b"}}
	if i := FindConversation(list, "b"); i != 1 {
		t.Errorf("FindConversation(b) = %d, want 1", i)
	}
	if i := FindConversation(list, "z"); i != -1 {
		t.Errorf("FindConversation(z) = %d, want -1", i)
	}
}

func TestConversation_DisplayTitle(t *testing.T) {
	if got := (Conversation{Title: "  "}).DisplayTitle(); got != "Untitled" {
		t.Errorf("DisplayTitle() = %q, want Untitled", got)
	}
}

// =============================================================================
// RATING TESTS
// =============================================================================

func TestRating_Valid(t *testing.T) {
	for r, want := range map[Rating]bool{RatingUp: true, RatingDown: true, RatingNone: false, 2: false} {
		if got := r.Valid(); got != want {
			t.Errorf("Rating(%d).Valid() = %v, want %v", r, got, want)
		}
	}
}

func TestFeedback_JSON(t *testing.T) {
	b, err := json.Marshal(Feedback{MessageID: 3, UserID: 9, Rating: RatingDown})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"message_id":3,"user_id":9,"rating":-1}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}
