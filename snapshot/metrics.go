/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_snapshot_source_failures_total",
			Help: "Snapshot source reads that failed or timed out",
		},
		[]string{"source"},
	)

	fetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checklist_snapshot_fetch_seconds",
			Help:    "Wall time of a full snapshot fetch",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5, 10},
		},
	)
)
