// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"
)

// JSONExporter exports transcripts to JSON. Options do not filter the
// output: ids and metadata are always included.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonMessage struct {
	ID      int64  `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonTranscript struct {
	ConversationID string        `json:"conversation_id"`
	Title          string        `json:"title"`
	User           string        `json:"user,omitempty"`
	ExportedAt     time.Time     `json:"exported_at"`
	Messages       []jsonMessage `json:"messages"`
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	out := jsonTranscript{
		ConversationID: t.Conversation.ID,
		Title:          t.Conversation.Title,
		User:           t.Username,
		ExportedAt:     t.ExportedAt.UTC(),
		Messages:       make([]jsonMessage, 0, len(t.Messages)),
	}
	for _, m := range t.Messages {
		out.Messages = append(out.Messages, jsonMessage{ID: m.ID, Role: m.Role.String(), Content: m.Content})
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
