// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package feedback

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/server"
	"github.com/mfaxmodem/teacher-assistant/internal/telemetry"
)

type countingSender struct {
	calls int
	err   error
}

func (c *countingSender) SendFeedback(ctx context.Context, fb model.Feedback) error {
	c.calls++
	return c.err
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(1, model.RatingUp))
	assert.NoError(t, Validate(1, model.RatingDown))
	assert.True(t, errors.Is(Validate(0, model.RatingUp), ErrNoMessageID))
	assert.True(t, errors.Is(Validate(-3, model.RatingUp), ErrNoMessageID))
	assert.True(t, errors.Is(Validate(1, model.RatingNone), ErrInvalidRating))
	assert.True(t, errors.Is(Validate(1, model.Rating(5)), ErrInvalidRating))
}

func TestSubmit_RejectsBeforeTransport(t *testing.T) {
	sender := &countingSender{}
	s := NewSubmitter(sender, 1, nil, nil)

	err := s.Submit(context.Background(), 0, model.RatingUp)
	assert.True(t, errors.Is(err, ErrNoMessageID))

	err = s.Submit(context.Background(), 9, model.Rating(2))
	assert.True(t, errors.Is(err, ErrInvalidRating))

	assert.Zero(t, sender.calls)
}

func TestSubmit_TransportFailureIsSwallowed(t *testing.T) {
	sender := &countingSender{err: &api.TransportError{Op: "POST /api/feedback", Err: errors.New("refused")}}
	metrics := telemetry.New()
	s := NewSubmitter(sender, 1, nil, metrics)

	assert.NoError(t, s.Submit(context.Background(), 4, model.RatingDown))
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, model.RatingNone, s.Rating(4))
	count, err := testutil.GatherAndCount(metrics.Registry(), "tassist_feedback_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSubmit_RecordsRatingAgainstBackend(t *testing.T) {
	srv := server.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	user, err := srv.SeedUser("t", "p")
	require.NoError(t, err)
	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: ts.URL, Timeout: 5 * time.Second})
	s := NewSubmitter(client, user.ID, nil, nil)
	ctx := context.Background()

	require.NoError(t, s.Submit(ctx, 12, model.RatingUp))
	assert.Equal(t, model.RatingUp, s.Rating(12))
	got, ok := srv.Rating(12, user.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got)

	// Changing the rating replaces it on both sides.
	require.NoError(t, s.Submit(ctx, 12, model.RatingDown))
	assert.Equal(t, model.RatingDown, s.Rating(12))
	got, _ = srv.Rating(12, user.ID)
	assert.Equal(t, -1, got)

	srv.Fail(http.MethodPost, "/api/feedback", http.StatusInternalServerError, "")
	require.NoError(t, s.Submit(ctx, 12, model.RatingUp))
	assert.Equal(t, model.RatingDown, s.Rating(12), "failed submit leaves rating")

	s.Forget()
	assert.Equal(t, model.RatingNone, s.Rating(12))
}

func TestCanRate(t *testing.T) {
	final := model.Message{ID: 3, Role: model.RoleAssistant, Content: "x"}
	assert.True(t, CanRate(final))

	noID := final
	noID.ID = 0
	assert.False(t, CanRate(noID))

	streaming := final
	streaming.Streaming = true
	assert.False(t, CanRate(streaming))

	failed := final
	failed.Failed = true
	assert.False(t, CanRate(failed))

	user := final
	user.Role = model.RoleUser
	assert.False(t, CanRate(user))
}
