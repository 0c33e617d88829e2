// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChecksTotal counts skill checks by phase and outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var ChecksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "holotrack_checks_total",
		Help: "Total number of tracking skill checks",
	},
	[]string{"phase", "outcome"},
)

// TransitionsTotal counts phase transitions.
var TransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "holotrack_transitions_total",
		Help: "Total number of tracking phase transitions",
	},
	[]string{"from", "to"},
)

// FinishedTotal counts pursuits that reached a terminal status.
var FinishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "holotrack_finished_total",
		Help: "Total number of pursuits that ended, by final status",
	},
	[]string{"status"},
)

// AutoSuccessTotal counts close-in attempts resolved without a check.
var AutoSuccessTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "holotrack_auto_success_total",
		Help: "Total number of close-in attempts that succeeded automatically",
	},
)

// OperationDuration observes how long each service operation took.
var OperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "holotrack_operation_duration_seconds",
		Help:    "Tracking operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// RegisterMetrics registers tracking metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ChecksTotal)
	reg.MustRegister(TransitionsTotal)
	reg.MustRegister(FinishedTotal)
	reg.MustRegister(AutoSuccessTotal)
	reg.MustRegister(OperationDuration)
}

func recordCheck(phase Phase, result CheckResult) {
	outcome := result.Outcome.String()
	if result.IsFumble {
		outcome = "fumble"
	}
	ChecksTotal.WithLabelValues(phase.String(), outcome).Inc()
}

func recordTransition(from, to Phase) {
	if from != to {
		TransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	}
}

func recordFinished(status Status) {
	FinishedTotal.WithLabelValues(status.String()).Inc()
}

func recordDuration(op string, start time.Time) {
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
