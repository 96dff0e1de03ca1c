// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedback submits thumbs-up and thumbs-down ratings for assistant
// replies. Submission is best effort: a failed request is logged and
// otherwise ignored.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/telemetry"
)

var (
	// ErrNoMessageID is returned for a message the backend never assigned
	// an id to. Such messages cannot be rated.
	ErrNoMessageID = errors.New("message has no id")

	// ErrInvalidRating is returned for a rating other than +1 or -1.
	ErrInvalidRating = errors.New("rating must be +1 or -1")
)

// Sender posts a rating to the backend.
type Sender interface {
	SendFeedback(ctx context.Context, fb model.Feedback) error
}

// Submitter rates messages on behalf of one user and remembers the last
// rating that reached the backend for each message.
type Submitter struct {
	sender  Sender
	userID  int64
	log     *zap.Logger
	metrics *telemetry.Metrics

	mu    sync.Mutex
	rated map[int64]model.Rating
}

// NewSubmitter creates a submitter for userID.
func NewSubmitter(sender Sender, userID int64, log *zap.Logger, metrics *telemetry.Metrics) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{
		sender:  sender,
		userID:  userID,
		log:     log.Named("feedback"),
		metrics: metrics,
		rated:   make(map[int64]model.Rating),
	}
}

// Validate checks a rating before anything is sent.
func Validate(messageID int64, rating model.Rating) error {
	if messageID <= 0 {
		return ErrNoMessageID
	}
	if !rating.Valid() {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, int(rating))
	}
	return nil
}

// CanRate reports whether msg can receive feedback.
func CanRate(msg model.Message) bool {
	return msg.IsAssistant() && msg.HasID() && !msg.Streaming && !msg.Failed
}

// Submit sends rating for messageID. Invalid input is rejected before any
// request is made. A transport failure is logged and Submit returns nil;
// the message's recorded rating is then left unchanged.
func (s *Submitter) Submit(ctx context.Context, messageID int64, rating model.Rating) error {
	if err := Validate(messageID, rating); err != nil {
		return err
	}

	fb := model.Feedback{MessageID: messageID, UserID: s.userID, Rating: rating}
	if err := s.sender.SendFeedback(ctx, fb); err != nil {
		s.metrics.RecordFeedback(rating.String(), false)
		s.log.Warn("feedback not recorded",
			zap.Int64("message_id", messageID),
			zap.Int64("user_id", s.userID),
			zap.Stringer("rating", rating),
			zap.Error(err))
		return nil
	}

	s.metrics.RecordFeedback(rating.String(), true)
	s.mu.Lock()
	s.rated[messageID] = rating
	s.mu.Unlock()

	s.log.Debug("feedback recorded", zap.Int64("message_id", messageID), zap.Stringer("rating", rating))
	return nil
}

// Rating returns the last rating recorded for messageID, or RatingNone.
func (s *Submitter) Rating(messageID int64) model.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rated[messageID]
}

// Forget drops all recorded ratings.
func (s *Submitter) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rated = make(map[int64]model.Rating)
}
