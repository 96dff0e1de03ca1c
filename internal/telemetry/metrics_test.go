// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("messages.list", "GET", 200, 10*time.Millisecond)
	m.ObserveRequest("messages.list", "GET", 500, 10*time.Millisecond)
	m.ObserveRequest("chat", "POST", 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("messages.list", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("chat", "POST", StatusTransport)))

	sum, err := m.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Requests)
	assert.Equal(t, 2, sum.FailedRequests)
}

func TestStreamStarted(t *testing.T) {
	m := New()

	done := m.StreamStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamsActive))
	done(OutcomeCompleted, 42)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.streamsActive))

	m.StreamStarted()(OutcomeFailed, 0)

	sum, err := m.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Streams[OutcomeCompleted])
	assert.Equal(t, 1, sum.Streams[OutcomeFailed])
	assert.Equal(t, 42, sum.StreamBytes)
	assert.Contains(t, sum.String(), "completed=1")
}

func TestFeedbackAndPages(t *testing.T) {
	m := New()
	m.RecordFeedback("up", true)
	m.RecordFeedback("down", false)
	m.RecordPage(true)

	sum, err := m.Summary()
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Feedback)
	assert.Equal(t, 1, sum.Pages)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("x", "GET", 200, 0)
	m.StreamStarted()(OutcomeCompleted, 1)
	m.RecordFeedback("up", true)
	m.RecordPage(false)

	sum, err := m.Summary()
	require.NoError(t, err)
	assert.Zero(t, sum.Requests)
	assert.Nil(t, m.Registry())
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordPage(true)

	sb, err := b.Summary()
	require.NoError(t, err)
	assert.Zero(t, sb.Pages)
}
