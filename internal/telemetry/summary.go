// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"fmt"
	"strings"
)

// Summary is a point-in-time view of the registry.
type Summary struct {
	Requests       int
	FailedRequests int // non-2xx or transport failures
	Streams        map[string]int
	StreamBytes    int
	Feedback       int
	Pages          int
}

// Summary gathers the registry into a Summary.
func (m *Metrics) Summary() (Summary, error) {
	sum := Summary{Streams: map[string]int{}}
	if m == nil {
		return sum, nil
	}

	families, err := m.registry.Gather()
	if err != nil {
		return sum, fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range families {
		name := strings.TrimPrefix(mf.GetName(), namespace+"_")
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			value := int(metric.GetCounter().GetValue())

			switch name {
			case "requests_total":
				sum.Requests += value
				if !strings.HasPrefix(labels["status"], "2") {
					sum.FailedRequests += value
				}
			case "streams_total":
				sum.Streams[labels["outcome"]] += value
			case "stream_bytes_total":
				sum.StreamBytes += value
			case "feedback_total":
				sum.Feedback += value
			case "history_pages_total":
				sum.Pages += value
			}
		}
	}
	return sum, nil
}

// String renders the summary on one line.
func (s Summary) String() string {
	return fmt.Sprintf("requests=%d failed=%d streams(completed=%d failed=%d cancelled=%d) bytes=%d feedback=%d pages=%d",
		s.Requests, s.FailedRequests,
		s.Streams[OutcomeCompleted], s.Streams[OutcomeFailed], s.Streams[OutcomeCancelled],
		s.StreamBytes, s.Feedback, s.Pages)
}
