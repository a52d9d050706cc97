/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package snapshot gathers the external state the onboarding checklist
// observes into a single point-in-time Snapshot.
//
// The evaluation-management service is modelled as a Source: a handful of
// read-only calls listing agents, datasets, per-dataset test cases,
// evaluations, whether recent evaluations carry annotations, and how many
// production traces exist. A Fetcher fans those calls out concurrently and
// assembles the results.
//
// # Best-Effort Semantics
//
// Every read is independent and bounded by its own timeout. A read that fails
// or times out degrades to its zero value and is recorded in Snapshot.Failed;
// the other reads carry on:
//
//	f := snapshot.NewFetcher(src, snapshot.WithSourceTimeout(2*time.Second))
//	snap, err := f.Fetch(ctx)
//	if err != nil {
//	    // Every top-level source failed, or ctx is done.
//	    return err
//	}
//	if len(snap.Failed) > 0 {
//	    log.Printf("partial snapshot, failed sources: %v", snap.Failed)
//	}
//
// Fetch only returns an error when every top-level source failed
// (ErrAllSourcesFailed) or when the caller's context is done. Partial data is
// never an error.
//
// # Phases
//
// Agents, datasets, evaluations and the production trace count are read
// concurrently first. Test cases (one read per dataset) and the annotation
// probe (over the most recently completed evaluations) depend on those
// results and are read concurrently in a second phase.
//
// # Observability
//
// Each fetch runs in an OpenTelemetry span and reports per-source failures and
// fetch latency as Prometheus metrics.
package snapshot
