/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklistreconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"chainguard.dev/checklistaf/checklist"
	"chainguard.dev/checklistaf/reconcilers/checklistreconciler/statusmanager"
	"chainguard.dev/checklistaf/snapshot"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var (
	// ErrUnknownTask is returned for a task id not in the definition.
	ErrUnknownTask = errors.New("unknown task")
	// ErrUnknownStep is returned for a step number not in the definition.
	ErrUnknownStep = errors.New("unknown step")
	// ErrUnknownSection is returned for a section index outside its step.
	ErrUnknownSection = errors.New("unknown section")
)

// Engine owns the checklist state and is its only writer.
type Engine struct {
	def      *checklist.Definition
	store    statusmanager.Store
	onChange func(State)

	mu    sync.Mutex
	state State
	// issued is the last generation handed out by BeginCycle, applied the
	// last one applied. Generations below floor are discarded.
	issued  uint64
	applied uint64
	floor   uint64
	// version counts committed mutations.
	version uint64

	notifyMu sync.Mutex
	notified uint64
}

// New constructs an Engine and loads the manual state from store. A load
// failure is logged and the engine starts empty. Persisted ids that are not
// in the definition are dropped.
func New(ctx context.Context, def *checklist.Definition, store statusmanager.Store, opts ...Option) (*Engine, error) {
	if def == nil {
		return nil, errors.New("definition must not be nil")
	}
	if store == nil {
		return nil, errors.New("store must not be nil")
	}
	e := &Engine{
		def:   def,
		store: store,
		state: State{Manual: statusmanager.Status{}, Auto: checklist.IDSet{}},
	}
	for _, opt := range opts {
		opt(e)
	}

	loaded, err := store.ObservedState(ctx)
	if err != nil {
		clog.WarnContextf(ctx, "Failed to load checklist state, starting empty: %v", err)
		loaded = nil
	}
	for id, checked := range loaded {
		if !def.Has(id) {
			clog.FromContext(ctx).With("task", id).Debug("Dropping persisted state for unknown task")
			continue
		}
		e.state.Manual[id] = checked
	}
	progressPercent.Set(float64(checklist.ComputeProgress(def, e.state.Manual).Percent()))
	return e, nil
}

// Definition returns the checklist the engine reconciles.
func (e *Engine) Definition() *checklist.Definition {
	return e.def
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Progress returns the completion of the current manual state.
func (e *Engine) Progress() checklist.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return checklist.ComputeProgress(e.def, e.state.Manual)
}

// Toggle flips one task.
func (e *Engine) Toggle(ctx context.Context, id string) error {
	if !e.def.Has(id) {
		return fmt.Errorf("%w: %q", ErrUnknownTask, id)
	}
	e.mutate(ctx, ToggleEvent{TaskID: id})
	togglesTotal.WithLabelValues("task").Inc()
	return nil
}

// ToggleSection checks every task in the section, or unchecks them all if
// they are already all checked. section is a zero-based index. The change is
// applied and persisted as a single transition.
func (e *Engine) ToggleSection(ctx context.Context, step, section int) error {
	s, ok := e.def.Step(step)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	if section < 0 || section >= len(s.Sections) {
		return fmt.Errorf("%w: step %d has no section %d", ErrUnknownSection, step, section)
	}
	e.mutate(ctx, ToggleSectionEvent{Step: step, Section: section})
	togglesTotal.WithLabelValues("section").Inc()
	return nil
}

// ResetStep clears the tasks of one step. Other steps are untouched.
func (e *Engine) ResetStep(ctx context.Context, step int) error {
	if _, ok := e.def.Step(step); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	e.mutate(ctx, ResetStepEvent{Step: step})
	togglesTotal.WithLabelValues("reset_step").Inc()
	return nil
}

// ResetAll clears every check mark and the auto-detected set.
func (e *Engine) ResetAll(ctx context.Context) {
	e.mutate(ctx, ResetAllEvent{})
	togglesTotal.WithLabelValues("reset_all").Inc()
}

// BeginCycle issues the generation for a new cycle. Call it before starting
// the fetch the cycle will apply.
func (e *Engine) BeginCycle() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.issued++
	return e.issued
}

// DiscardPending causes every generation issued so far to be discarded when
// its result arrives.
func (e *Engine) DiscardPending() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.floor = e.issued + 1
}

// ApplyCycle reconciles the snapshot fetched for generation gen. It reports
// whether the result was applied; results that are stale, discarded, or nil
// leave the state unchanged.
func (e *Engine) ApplyCycle(ctx context.Context, gen uint64, snap *snapshot.Snapshot) bool {
	tr := otel.Tracer("chainguard.checklist.reconciler",
		oteltrace.WithInstrumentationVersion("1.0.0"))
	ctx, span := tr.Start(ctx, "checklist.cycle.apply")
	defer span.End()
	span.SetAttributes(attribute.Int64("checklist.cycle.generation", int64(gen)))

	log := clog.FromContext(ctx).With("generation", gen)

	st, version, ok := e.applyCycle(ctx, gen, snap)
	if !ok {
		cyclesTotal.WithLabelValues(resultDiscarded).Inc()
		span.SetAttributes(attribute.Bool("checklist.cycle.discarded", true))
		log.Debugf("Discarding cycle result (nil snapshot %t)", snap == nil)
		return false
	}

	cyclesTotal.WithLabelValues(resultApplied).Inc()
	autoDetected.Set(float64(len(st.Auto)))
	span.SetAttributes(
		attribute.Int("checklist.cycle.detected", len(st.Auto)),
		attribute.StringSlice("checklist.cycle.failed_sources", snap.Failed),
	)
	if len(snap.Failed) > 0 {
		log.With("failed", snap.Failed).Info("Applied cycle with partial snapshot")
	}
	e.notify(st, version)
	return true
}

// applyCycle reduces snap into the state unless gen is stale or below the
// discard floor. The generation is only recorded once the new state is
// persisted and installed.
func (e *Engine) applyCycle(ctx context.Context, gen uint64, snap *snapshot.Snapshot) (State, uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if snap == nil || gen <= e.applied || gen < e.floor {
		return State{}, 0, false
	}
	detected := Cascade(e.def, Detect(e.def, snap))
	st, version := e.commitLocked(ctx, CycleEvent{Detected: detected})
	e.applied = gen
	return st, version, true
}

func (e *Engine) mutate(ctx context.Context, ev Event) {
	st, version := e.commit(ctx, ev)
	e.notify(st, version)
}

func (e *Engine) commit(ctx context.Context, ev Event) (State, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commitLocked(ctx, ev)
}

// commitLocked reduces ev, persists the result, and only then installs it as
// the current state. A panicking store leaves the previous state in place.
// It returns a copy of the new state and its version. e.mu must be held.
func (e *Engine) commitLocked(ctx context.Context, ev Event) (State, uint64) {
	next := Reduce(e.def, e.state, ev)
	if err := e.store.SetActualState(ctx, next.Manual.Clone()); err != nil {
		persistFailures.Inc()
		clog.WarnContextf(ctx, "Failed to persist checklist state: %v", err)
	}
	e.state = next
	e.version++
	progressPercent.Set(float64(checklist.ComputeProgress(e.def, e.state.Manual).Percent()))
	return e.state.Clone(), e.version
}

// notify hands st to the observer unless a newer state was already
// delivered. Callbacks from concurrent mutations may still overlap.
func (e *Engine) notify(st State, version uint64) {
	if e.onChange == nil {
		return
	}
	e.notifyMu.Lock()
	if version <= e.notified {
		e.notifyMu.Unlock()
		return
	}
	e.notified = version
	e.notifyMu.Unlock()
	e.onChange(st)
}
