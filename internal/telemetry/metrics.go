// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tassist"

// Stream outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// StatusTransport labels requests that never produced an HTTP status.
const StatusTransport = "transport"

// Metrics groups the client's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	streamsTotal    *prometheus.CounterVec
	streamDuration  prometheus.Histogram
	streamBytes     prometheus.Counter
	streamsActive   prometheus.Gauge
	feedbackTotal   *prometheus.CounterVec
	pagesLoaded     *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Backend requests by endpoint and status",
			},
			[]string{"endpoint", "method", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Time to response headers for backend requests",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		streamsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "streams_total",
				Help:      "Streamed assistant replies by outcome",
			},
			[]string{"outcome"},
		),
		streamDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stream_duration_seconds",
				Help:      "Duration of streamed assistant replies",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
			},
		),
		streamBytes: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_bytes_total",
				Help:      "Bytes of assistant text received",
			},
		),
		streamsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "streams_active",
				Help:      "Replies currently streaming",
			},
		),
		feedbackTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feedback_total",
				Help:      "Feedback submissions by rating and result",
			},
			[]string{"rating", "result"},
		),
		pagesLoaded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_pages_total",
				Help:      "History page loads by result",
			},
			[]string{"result"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one backend call. status is the HTTP status, or 0
// when the request failed before a response arrived.
func (m *Metrics) ObserveRequest(endpoint, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := StatusTransport
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(endpoint, method, label).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// StreamStarted marks a reply as streaming and returns the function that
// must be called exactly once when it ends.
func (m *Metrics) StreamStarted() func(outcome string, bytes int) {
	if m == nil {
		return func(string, int) {}
	}
	start := time.Now()
	m.streamsActive.Inc()
	return func(outcome string, bytes int) {
		m.streamsActive.Dec()
		m.streamsTotal.WithLabelValues(outcome).Inc()
		m.streamDuration.Observe(time.Since(start).Seconds())
		if bytes > 0 {
			m.streamBytes.Add(float64(bytes))
		}
	}
}

// RecordFeedback counts one feedback submission.
func (m *Metrics) RecordFeedback(rating string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.feedbackTotal.WithLabelValues(rating, result).Inc()
}

// RecordPage counts one history page load.
func (m *Metrics) RecordPage(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.pagesLoaded.WithLabelValues(result).Inc()
}
