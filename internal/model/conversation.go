// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"unicode/utf8"
)

// MaxTitleRunes is how much of the first message the backend keeps as a title.
const MaxTitleRunes = 50

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a titled conversation owned by one user.
// The ID is an opaque string assigned by the backend.
type Conversation struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DisplayTitle returns the title, or a placeholder when it is blank.
func (c Conversation) DisplayTitle() string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	return "Untitled"
}

// TitleFromMessage derives the title the backend will store for a
// conversation started with the given first message.
func TitleFromMessage(first string) string {
	if utf8.RuneCountInString(first) <= MaxTitleRunes {
		return first
	}
	runes := []rune(first)
	return string(runes[:MaxTitleRunes])
}

// FindConversation returns the index of the conversation with the given ID,
// or -1 when absent.
func FindConversation(list []Conversation, id string) int {
	for i, c := range list {
		if c.ID == id {
			return i
		}
	}
	return -1
}
