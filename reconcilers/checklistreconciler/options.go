/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklistreconciler

import "time"

// Option configures the Engine.
type Option func(*Engine)

// WithOnChange installs a callback invoked with a copy of the state after
// every applied mutation. It runs outside the engine lock, so it may call
// back into the Engine. A state older than one already delivered is never
// delivered, but callbacks for concurrent mutations may overlap, so
// observers that need the latest state should read Engine.State.
func WithOnChange(f func(State)) Option {
	return func(e *Engine) {
		e.onChange = f
	}
}

// PollOption configures StartPolling.
type PollOption func(*Handle)

// WithInterval sets the time between cycles. Non-positive values are ignored.
func WithInterval(d time.Duration) PollOption {
	return func(h *Handle) {
		if d > 0 {
			h.interval = d
		}
	}
}
