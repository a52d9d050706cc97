/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklistreconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle results, used as the "result" label of checklist_cycles_total.
const (
	resultApplied   = "applied"
	resultFailed    = "failed"
	resultDiscarded = "discarded"
	resultSkipped   = "skipped"
)

var (
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_cycles_total",
			Help: "Reconciliation cycles by outcome",
		},
		[]string{"result"},
	)

	persistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checklist_persist_failures_total",
			Help: "Manual check state writes that failed",
		},
	)

	togglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_toggles_total",
			Help: "User interactions with the checklist",
		},
		[]string{"kind"},
	)

	autoDetected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checklist_auto_detected_tasks",
			Help: "Tasks detected by the last applied cycle",
		},
	)

	progressPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checklist_progress_percent",
			Help: "Overall checklist completion",
		},
	)
)
