/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklistreconciler

import (
	"testing"

	"chainguard.dev/checklistaf/checklist"
	"chainguard.dev/checklistaf/reconcilers/checklistreconciler/statusmanager"
	"github.com/google/go-cmp/cmp"
)

func state(manual statusmanager.Status, auto ...string) State {
	if manual == nil {
		manual = statusmanager.Status{}
	}
	return State{Manual: manual, Auto: checklist.NewIDSet(auto...)}
}

func TestReduce(t *testing.T) {
	def := testDefinition(t)

	tests := []struct {
		name  string
		start State
		event Event
		want  State
	}{{
		name:  "cycle checks detected",
		start: state(nil),
		event: CycleEvent{Detected: checklist.NewIDSet("a1", "c2")},
		want:  state(statusmanager.Status{"a1": true, "c2": true}, "a1", "c2"),
	}, {
		name:  "selective retraction",
		start: state(statusmanager.Status{"a1": true, "a2": true, "a3": true}, "a1", "a2"),
		event: CycleEvent{Detected: checklist.NewIDSet()},
		want:  state(statusmanager.Status{"a1": false, "a2": false, "a3": true}),
	}, {
		name:  "cycle ignores unknown ids",
		start: state(nil),
		event: CycleEvent{Detected: checklist.NewIDSet("a1", "ghost")},
		want:  state(statusmanager.Status{"a1": true}, "a1"),
	}, {
		name:  "cycle leaves stale unchecked ids alone",
		start: state(statusmanager.Status{"a1": false}, "a1"),
		event: CycleEvent{Detected: checklist.NewIDSet()},
		want:  state(statusmanager.Status{"a1": false}),
	}, {
		name:  "toggle releases ownership",
		start: state(statusmanager.Status{"a1": true}, "a1"),
		event: ToggleEvent{TaskID: "a1"},
		want:  state(statusmanager.Status{"a1": false}),
	}, {
		name:  "toggle checks",
		start: state(nil),
		event: ToggleEvent{TaskID: "b2"},
		want:  state(statusmanager.Status{"b2": true}),
	}, {
		name:  "toggle unknown task",
		start: state(statusmanager.Status{"a1": true}, "a1"),
		event: ToggleEvent{TaskID: "ghost"},
		want:  state(statusmanager.Status{"a1": true}, "a1"),
	}, {
		name:  "section all checked unchecks all",
		start: state(statusmanager.Status{"a1": true, "a2": true, "a3": true, "b1": true}, "a1", "b1"),
		event: ToggleSectionEvent{Step: 1, Section: 0},
		want:  state(statusmanager.Status{"a1": false, "a2": false, "a3": false, "b1": true}, "b1"),
	}, {
		name:  "section partly checked checks all",
		start: state(statusmanager.Status{"a2": true}, "a2"),
		event: ToggleSectionEvent{Step: 1, Section: 0},
		want:  state(statusmanager.Status{"a1": true, "a2": true, "a3": true}),
	}, {
		name:  "section out of range",
		start: state(nil),
		event: ToggleSectionEvent{Step: 1, Section: 2},
		want:  state(nil),
	}, {
		name:  "reset step only clears that step",
		start: state(statusmanager.Status{"a1": true, "b2": true, "c1": true, "c2": true}, "a1", "c2"),
		event: ResetStepEvent{Step: 1},
		want:  state(statusmanager.Status{"c1": true, "c2": true}, "c2"),
	}, {
		name:  "reset unknown step",
		start: state(statusmanager.Status{"a1": true}),
		event: ResetStepEvent{Step: 9},
		want:  state(statusmanager.Status{"a1": true}),
	}, {
		name:  "reset all",
		start: state(statusmanager.Status{"a1": true, "c1": true}, "a1"),
		event: ResetAllEvent{},
		want:  state(nil),
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.start.Clone()
			got := Reduce(def, tt.start, tt.event)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Reduce() (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(before, tt.start); diff != "" {
				t.Errorf("Reduce mutated its input (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestReduceAutoImpliesChecked(t *testing.T) {
	def := testDefinition(t)
	s := state(statusmanager.Status{"a1": false, "b1": true}, "b1")
	s = Reduce(def, s, CycleEvent{Detected: checklist.NewIDSet("a1", "a2", "c2")})
	for id := range s.Auto {
		if !s.Manual[id] {
			t.Errorf("Manual[%s]: got = false, wanted = true for auto-detected id", id)
		}
	}
}

func TestReduceIdempotentCycle(t *testing.T) {
	def := testDefinition(t)
	ev := CycleEvent{Detected: checklist.NewIDSet("a1", "a2", "a3")}

	once := Reduce(def, state(statusmanager.Status{"c1": true}), ev)
	twice := Reduce(def, once, ev)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second cycle changed state (-once, +twice):\n%s", diff)
	}
}

func TestReduceToggleHandOff(t *testing.T) {
	def := testDefinition(t)

	s := Reduce(def, state(nil), CycleEvent{Detected: checklist.NewIDSet("a1")})
	s = Reduce(def, s, ToggleEvent{TaskID: "a1"})
	if s.Auto.Has("a1") {
		t.Fatal("a1 still machine-owned after user toggle")
	}

	// A cycle that no longer detects a1 leaves the user's uncheck alone.
	without := Reduce(def, s, CycleEvent{Detected: checklist.NewIDSet()})
	if got := without.Checked("a1"); got {
		t.Errorf("Checked(a1) after cycle without a1: got = %v, wanted = false", got)
	}

	// A cycle that detects a1 again re-checks it.
	with := Reduce(def, s, CycleEvent{Detected: checklist.NewIDSet("a1")})
	if got := with.Checked("a1"); !got {
		t.Errorf("Checked(a1) after cycle with a1: got = %v, wanted = true", got)
	}
}
