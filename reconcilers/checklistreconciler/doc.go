/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package checklistreconciler keeps the onboarding checklist in sync with the
// state of the evaluation-management service.
//
// Three sources of truth feed the checklist: check marks the user set by hand,
// facts detected by polling the service, and direct user interaction. The
// Engine merges them under one lock so neither side loses the other's intent.
//
// # Basic Usage
//
// Build an Engine over a definition and a persistence store, then start the
// poller:
//
//	def, err := checklist.Default()
//	if err != nil {
//	    return err
//	}
//	store, err := statusmanager.NewFile(dir, "onboarding-checklist")
//	if err != nil {
//	    return err
//	}
//	engine, err := checklistreconciler.New(ctx, def, store)
//	if err != nil {
//	    return err
//	}
//
//	h := checklistreconciler.StartPolling(ctx, engine, snapshot.NewFetcher(src))
//	defer h.Stop()
//
//	// User interaction enters synchronously.
//	if err := engine.Toggle(ctx, "create-agent"); err != nil {
//	    return err
//	}
//
// # Reconciliation
//
// Every cycle resolves each task's detection predicate against a fresh
// snapshot, extends the result backward within each section (see Cascade),
// and reduces it into the state:
//
//   - ids detected last cycle but not this one are unchecked, if checked
//   - ids detected this cycle are checked
//   - manual checks the machine never detected are never touched
//
// Toggling a task by hand removes it from the machine-owned set, so the next
// cycle does not immediately undo the click. A later cycle that detects the
// task again re-checks it.
//
// # Ordering
//
// Cycles carry a generation from BeginCycle. A result is applied only if its
// generation is newer than the last applied one, so a slow cycle never
// overwrites a faster, later one. Handle.Stop raises a floor below which all
// results are discarded on arrival.
//
// # Persistence
//
// The manual state is written to the statusmanager.Store after every
// mutation. Write failures are logged and counted, and the in-memory state
// remains authoritative.
package checklistreconciler
