/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklistreconciler

import "chainguard.dev/checklistaf/checklist"

// Cascade extends raw backward within each section: if the task at index k
// is in raw, every task before k in the same section is added. It never
// crosses a section or step boundary. The result is a superset of raw.
func Cascade(def *checklist.Definition, raw checklist.IDSet) checklist.IDSet {
	out := raw.Clone()
	if def == nil {
		return out
	}
	for _, step := range def.Steps {
		for _, sec := range step.Sections {
			highest := -1
			for i, task := range sec.Tasks {
				if raw.Has(task.ID) {
					highest = i
				}
			}
			for _, task := range sec.Tasks[:max(highest, 0)] {
				out.Add(task.ID)
			}
		}
	}
	return out
}
