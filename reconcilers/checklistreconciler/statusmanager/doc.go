/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package statusmanager persists the checklist's manual check state.
//
// The manual check state is a flat mapping from task id to "checked". It is
// the only durable state the checklist keeps: the auto-detected set is derived
// again on every reconciliation cycle and is never written here.
//
// # Basic Usage
//
// Pick a backend and read or write the whole mapping under one key:
//
//	store, err := statusmanager.NewFile(dir, "onboarding-checklist")
//	if err != nil {
//	    return err
//	}
//
//	observed, err := store.ObservedState(ctx)
//	if err != nil {
//	    return err
//	}
//	observed["create-agent"] = true
//	if err := store.SetActualState(ctx, observed); err != nil {
//	    return err
//	}
//
// # Backends
//
//   - NewMemory keeps state in process memory, for tests and throwaway sessions.
//   - NewFile writes <dir>/<key>.json atomically (temp file plus rename).
//   - NewBadger stores the mapping under one key of an embedded BadgerDB, see
//     OpenBadger.
//
// A key that was never written reads back as an empty Status, not an error.
//
// # Thread Safety
//
// All backends are safe for concurrent use. The checklist engine serializes
// its own writes, so a single writer per key is the expected deployment.
package statusmanager
