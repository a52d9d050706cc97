/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklistreconciler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"chainguard.dev/checklistaf/checklist"
	"chainguard.dev/checklistaf/reconcilers/checklistreconciler/statusmanager"
	"chainguard.dev/checklistaf/snapshot"
)

func detect(key string) *checklist.Predicate {
	p := checklist.MustParsePredicate(key)
	return &p
}

// testDefinition is a small checklist:
//
//	step 1: section 0 = a1 (has_agents), a2, a3 (has_eval_completed:2)
//	        section 1 = b1 (has_datasets), b2
//	step 2: section 0 = c1, c2 (has_production_traces)
func testDefinition(t *testing.T) *checklist.Definition {
	t.Helper()
	def, err := checklist.New(
		checklist.Step{
			Number: 1,
			Title:  "One",
			Sections: []checklist.Section{{
				Label: "A",
				Tasks: []checklist.Task{
					{ID: "a1", Text: "a1", Detect: detect("has_agents")},
					{ID: "a2", Text: "a2"},
					{ID: "a3", Text: "a3", Detect: detect("has_eval_completed:2")},
				},
			}, {
				Label: "B",
				Tasks: []checklist.Task{
					{ID: "b1", Text: "b1", Detect: detect("has_datasets")},
					{ID: "b2", Text: "b2"},
				},
			}},
		},
		checklist.Step{
			Number: 2,
			Title:  "Two",
			Sections: []checklist.Section{{
				Tasks: []checklist.Task{
					{ID: "c1", Text: "c1"},
					{ID: "c2", Text: "c2", Detect: detect("has_production_traces")},
				},
			}},
		},
	)
	if err != nil {
		t.Fatalf("checklist.New() = %v", err)
	}
	return def
}

func completedEvals(n int) []snapshot.Evaluation {
	out := make([]snapshot.Evaluation, 0, n)
	for i := range n {
		out = append(out, snapshot.Evaluation{ID: string(rune('a' + i)), Status: snapshot.StatusCompleted})
	}
	return out
}

// recordingStore remembers every write.
type recordingStore struct {
	mu       sync.Mutex
	initial  statusmanager.Status
	loadErr  error
	writeErr error
	writes   []statusmanager.Status
}

func (s *recordingStore) ObservedState(context.Context) (statusmanager.Status, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.initial.Clone(), nil
}

func (s *recordingStore) SetActualState(_ context.Context, status statusmanager.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, status.Clone())
	return s.writeErr
}

func (s *recordingStore) Writes() []statusmanager.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]statusmanager.Status(nil), s.writes...)
}

var errBoom = errors.New("boom")

// fakeFetcher returns a fixed snapshot. When gate is set, Fetch blocks until
// it is closed.
type fakeFetcher struct {
	mu      sync.Mutex
	snap    *snapshot.Snapshot
	err     error
	calls   int
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) Fetch(context.Context) (*snapshot.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	gate, started := f.gate, f.started
	snap, err := f.snap, f.err
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	return snap, err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// panickingStore panics on the first n writes and succeeds afterwards.
type panickingStore struct {
	statusmanager.Memory
	mu     sync.Mutex
	panics int
}

func (s *panickingStore) SetActualState(ctx context.Context, status statusmanager.Status) error {
	s.mu.Lock()
	if s.panics > 0 {
		s.panics--
		s.mu.Unlock()
		panic("store blew up")
	}
	s.mu.Unlock()
	return s.Memory.SetActualState(ctx, status)
}
