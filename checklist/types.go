/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import (
	"maps"
	"slices"
)

// Task is a single checklist item.
type Task struct {
	ID   string `yaml:"id" json:"id" jsonschema:"required"`
	Text string `yaml:"text" json:"text" jsonschema:"required"`

	// Link is an optional page the task points the user at.
	Link string `yaml:"link,omitempty" json:"link,omitempty"`
	// Copy is an optional snippet offered for the clipboard.
	Copy string `yaml:"copy,omitempty" json:"copy,omitempty"`
	// Detect is the optional detection predicate.
	Detect *Predicate `yaml:"detect,omitempty" json:"detect,omitempty"`
}

// Section is an ordered group of tasks within a step. Cascade inference
// never crosses a section boundary.
type Section struct {
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	Tasks []Task `yaml:"tasks" json:"tasks" jsonschema:"required,minItems=1"`
}

// Step is a top-level phase of the guided workflow.
type Step struct {
	Number   int       `yaml:"number" json:"number" jsonschema:"required,minimum=1"`
	Title    string    `yaml:"title" json:"title" jsonschema:"required"`
	Sections []Section `yaml:"sections" json:"sections" jsonschema:"required,minItems=1"`
}

// Definition is the full checklist. Treat it as read-only once built.
type Definition struct {
	Steps []Step `yaml:"steps" json:"steps" jsonschema:"required,minItems=1"`

	index map[string]taskRef
}

type taskRef struct {
	step    int // index into Steps
	section int // index into Step.Sections
	task    int // index into Section.Tasks
}

// Task returns the task with the given id.
func (d *Definition) Task(id string) (Task, bool) {
	ref, ok := d.index[id]
	if !ok {
		return Task{}, false
	}
	return d.Steps[ref.step].Sections[ref.section].Tasks[ref.task], true
}

// Has reports whether id names a task in the definition.
func (d *Definition) Has(id string) bool {
	_, ok := d.index[id]
	return ok
}

// Step returns the step with the given number.
func (d *Definition) Step(number int) (Step, bool) {
	for _, s := range d.Steps {
		if s.Number == number {
			return s, true
		}
	}
	return Step{}, false
}

// TaskIDs returns every task id in definition order.
func (d *Definition) TaskIDs() []string {
	ids := make([]string, 0, len(d.index))
	for _, step := range d.Steps {
		ids = append(ids, step.TaskIDs()...)
	}
	return ids
}

// TaskIDs returns the ids of every task in the step, in order.
func (s Step) TaskIDs() []string {
	var ids []string
	for _, sec := range s.Sections {
		ids = append(ids, sec.TaskIDs()...)
	}
	return ids
}

// TaskIDs returns the ids of the section's tasks, in order.
func (s Section) TaskIDs() []string {
	ids := make([]string, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

// IDSet is a set of task ids.
type IDSet map[string]struct{}

// NewIDSet builds a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id.
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Clone returns an independent copy. The clone of a nil set is an empty set.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return IDSet{}
	}
	return maps.Clone(s)
}

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}
