// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Rating is a thumbs-up or thumbs-down on an assistant message.
type Rating int

const (
	RatingDown Rating = -1
	RatingNone Rating = 0
	RatingUp   Rating = 1
)

// Valid reports whether r is one of the two values the backend accepts.
func (r Rating) Valid() bool {
	return r == RatingUp || r == RatingDown
}

// String returns a short label for the rating.
func (r Rating) String() string {
	switch r {
	case RatingUp:
		return "up"
	case RatingDown:
		return "down"
	default:
		return "none"
	}
}

// Feedback is the payload posted to /api/feedback.
type Feedback struct {
	MessageID int64  `json:"message_id"`
	UserID    int64  `json:"user_id"`
	Rating    Rating `json:"rating"`
}
