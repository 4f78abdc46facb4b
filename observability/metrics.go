// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the gateway.
//
// Metrics are registered on the default registry via promauto and exposed on
// the /metrics endpoint. All operations are thread-safe via Prometheus's
// internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all gateway metrics.
const metricsNamespace = "insightgw"

var (
	// AnswersTotal counts successfully completed RAG answers.
	AnswersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "answers_total",
		Help:      "Total number of successful RAG answers.",
	})

	// AnswerLatency measures end-to-end RAG answer duration in seconds,
	// retrieval and generation included.
	AnswerLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "answer_duration_seconds",
		Help:      "End-to-end RAG answer duration in seconds.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// ScopeDenials counts requests rejected by organization scoping, both
	// out-of-scope bucket access and non-admin use of admin commands.
	ScopeDenials = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "scope_denials_total",
		Help:      "Total requests denied by organization scoping.",
	})

	// ImpersonationSwitches counts successful org switch commands.
	ImpersonationSwitches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "impersonation_switches_total",
		Help:      "Total successful organization impersonation switches.",
	})
)
