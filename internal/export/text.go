// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/mfaxmodem/teacher-assistant/internal/util"
)

// TextExporter exports transcripts as plain text.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a new plain text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export converts a transcript to plain text.
func (e *TextExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	var sb strings.Builder
	if e.options.IncludeMetadata {
		title := t.Conversation.DisplayTitle()
		sb.WriteString(title + "\n")
		sb.WriteString(strings.Repeat("=", util.StringWidth(title)) + "\n")
		fmt.Fprintf(&sb, "exported %s\n\n", formatTimestamp(t.ExportedAt))
	}

	for _, msg := range t.Messages {
		label := msg.Role.DisplayName()
		if e.options.IncludeIDs && msg.IsAssistant() && msg.HasID() {
			label = fmt.Sprintf("%s #%d", label, msg.ID)
		}
		fmt.Fprintf(&sb, "[%s]\n%s\n\n", label, strings.TrimSpace(msg.Content))
	}
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}
