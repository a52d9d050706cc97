/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklistreconciler

import (
	"chainguard.dev/checklistaf/checklist"
	"chainguard.dev/checklistaf/reconcilers/checklistreconciler/statusmanager"
)

// State is everything the engine tracks.
type State struct {
	// Manual is the persisted check state. Only keys that name a task in
	// the definition are kept.
	Manual statusmanager.Status
	// Auto is the set of ids the last applied cycle detected. Every member
	// has Manual[id] == true immediately after that cycle.
	Auto checklist.IDSet
}

// Clone returns a deep copy.
func (s State) Clone() State {
	return State{Manual: s.Manual.Clone(), Auto: s.Auto.Clone()}
}

// Checked reports whether the task is checked.
func (s State) Checked(id string) bool {
	return s.Manual[id]
}

// Event is an input to Reduce.
type Event interface {
	event()
}

// CycleEvent carries the cascaded detection result of one poll cycle.
type CycleEvent struct {
	Detected checklist.IDSet
}

// ToggleEvent flips one task.
type ToggleEvent struct {
	TaskID string
}

// ToggleSectionEvent checks every task in a section, or unchecks every task
// if they are all already checked. Section is a zero-based index into the
// step's sections.
type ToggleSectionEvent struct {
	Step    int
	Section int
}

// ResetStepEvent clears the tasks of one step.
type ResetStepEvent struct {
	Step int
}

// ResetAllEvent clears everything.
type ResetAllEvent struct{}

func (CycleEvent) event()         {}
func (ToggleEvent) event()        {}
func (ToggleSectionEvent) event() {}
func (ResetStepEvent) event()     {}
func (ResetAllEvent) event()      {}

// Reduce returns the state after applying ev. The input state is never
// modified. Events naming an unknown task, step, or section return an
// unchanged copy.
func Reduce(def *checklist.Definition, s State, ev Event) State {
	next := s.Clone()

	switch ev := ev.(type) {
	case CycleEvent:
		for id := range next.Auto {
			if !ev.Detected.Has(id) && next.Manual[id] {
				next.Manual[id] = false
			}
		}
		auto := checklist.IDSet{}
		for id := range ev.Detected {
			if !def.Has(id) {
				continue
			}
			next.Manual[id] = true
			auto.Add(id)
		}
		next.Auto = auto

	case ToggleEvent:
		if !def.Has(ev.TaskID) {
			break
		}
		next.Manual[ev.TaskID] = !next.Manual[ev.TaskID]
		delete(next.Auto, ev.TaskID)

	case ToggleSectionEvent:
		sec, ok := section(def, ev.Step, ev.Section)
		if !ok {
			break
		}
		ids := sec.TaskIDs()
		all := true
		for _, id := range ids {
			all = all && next.Manual[id]
		}
		for _, id := range ids {
			next.Manual[id] = !all
			delete(next.Auto, id)
		}

	case ResetStepEvent:
		step, ok := def.Step(ev.Step)
		if !ok {
			break
		}
		for _, id := range step.TaskIDs() {
			delete(next.Manual, id)
			delete(next.Auto, id)
		}

	case ResetAllEvent:
		next = State{Manual: statusmanager.Status{}, Auto: checklist.IDSet{}}
	}
	return next
}

func section(def *checklist.Definition, step, index int) (checklist.Section, bool) {
	s, ok := def.Step(step)
	if !ok || index < 0 || index >= len(s.Sections) {
		return checklist.Section{}, false
	}
	return s.Sections[index], true
}
