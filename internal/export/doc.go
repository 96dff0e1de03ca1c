// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to files.
//
// # Supported Formats
//
//   - Markdown: human-readable, with optional YAML frontmatter
//   - JSON: machine-readable, including message ids
//   - Text: plain text for piping
//
// # Usage
//
//	exp, err := export.New("md", nil)
//	path, err := export.ExportToFile(transcript, exp, opts)
package export
