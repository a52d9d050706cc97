/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklistreconciler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"chainguard.dev/checklistaf/snapshot"
	"github.com/chainguard-dev/clog"
)

// DefaultInterval is the time between poll cycles.
const DefaultInterval = 10 * time.Second

// Fetcher produces snapshots. *snapshot.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (*snapshot.Snapshot, error)
}

var _ Fetcher = (*snapshot.Fetcher)(nil)

// Handle controls a running poller.
type Handle struct {
	engine   *Engine
	fetcher  Fetcher
	interval time.Duration

	inflight atomic.Bool
	fetches  sync.WaitGroup

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// StartPolling runs one cycle immediately and then one every interval until
// Stop is called or ctx is done. A tick that arrives while a fetch is still in
// flight is skipped. A failed fetch is logged and leaves the state unchanged;
// the next tick retries.
func StartPolling(ctx context.Context, engine *Engine, fetcher Fetcher, opts ...PollOption) *Handle {
	h := &Handle{
		engine:   engine,
		fetcher:  fetcher,
		interval: DefaultInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.run(ctx)
	return h
}

// Stop halts the timer and waits for it to exit. A fetch already in flight is
// not cancelled, but its result is discarded when it arrives. Stop is safe to
// call more than once.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Wait blocks until every fetch the poller started has returned. Call it
// after Stop before releasing what the engine's store depends on.
func (h *Handle) Wait() {
	h.fetches.Wait()
}

// Done is closed once the poller has stopped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) run(ctx context.Context) {
	defer close(h.done)
	// Raised after the loop exits so no tick can issue a generation above it.
	defer h.engine.DiscardPending()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.tick(ctx)
	for {
		select {
		case <-h.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick(ctx)
		}
	}
}

// tick starts one cycle unless another is still fetching.
func (h *Handle) tick(ctx context.Context) {
	if !h.inflight.CompareAndSwap(false, true) {
		cyclesTotal.WithLabelValues(resultSkipped).Inc()
		clog.FromContext(ctx).Debug("Skipping poll tick, previous fetch still in flight")
		return
	}
	gen := h.engine.BeginCycle()

	// Stopping the poller discards the result rather than cancelling the fetch.
	ctx = context.WithoutCancel(ctx)
	h.fetches.Add(1)
	go func() {
		defer h.fetches.Done()
		defer h.inflight.Store(false)
		if err := h.cycle(ctx, gen); err != nil {
			cyclesTotal.WithLabelValues(resultFailed).Inc()
			clog.FromContext(ctx).With("generation", gen).Errorf("Checklist cycle failed: %v", err)
		}
	}()
}

func (h *Handle) cycle(ctx context.Context, gen uint64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during cycle: %v", r)
		}
	}()
	snap, err := h.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching snapshot: %w", err)
	}
	h.engine.ApplyCycle(ctx, gen, snap)
	return nil
}
