// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides in-process Prometheus metrics for tassist.
//
// Metrics live in a private registry owned by a Metrics value, so tests and
// multiple clients never collide on the default registerer. Nothing is
// exported over the network; the status command reads a Summary.
//
// # Key Types
//
//   - Metrics: Counters and histograms for requests, streams and feedback
//   - Summary: Aggregated view gathered from the registry
//
// # Usage
//
//	m := telemetry.New()
//	done := m.StreamStarted()
//	// ... read the reply ...
//	done(telemetry.OutcomeCompleted, len(reply))
//	sum, _ := m.Summary()
//
// All methods are safe on a nil *Metrics.
package telemetry
