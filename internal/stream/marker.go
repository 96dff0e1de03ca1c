// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"regexp"
	"strconv"
)

var (
	markerPattern = regexp.MustCompile(`<!--ID:(\d+)-->`)

	// A marker that has started arriving but is not complete yet.
	partialMarkerPattern = regexp.MustCompile(`<(?:!(?:-(?:-(?:I(?:D(?::\d*(?:-(?:-)?)?)?)?)?)?)?)?$`)
)

// ExtractMessageID strips every id marker from text and returns the id
// carried by the last one. ok is false when there is no marker or its
// number does not fit an int64.
func ExtractMessageID(text string) (clean string, id int64, ok bool) {
	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, 0, false
	}

	last := matches[len(matches)-1]
	n, err := strconv.ParseInt(text[last[2]:last[3]], 10, 64)
	clean = markerPattern.ReplaceAllLiteralString(text, "")
	if err != nil || n <= 0 {
		return clean, 0, false
	}
	return clean, n, true
}

// VisibleText is the text to show while a reply is still arriving. It hides
// complete markers and the start of a marker split across chunks.
func VisibleText(text string) string {
	text = markerPattern.ReplaceAllLiteralString(text, "")
	if loc := partialMarkerPattern.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return text
}
