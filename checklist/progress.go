/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklist

// Counts is a done/total pair.
type Counts struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Percent returns the rounded completion percentage, or 0 when Total is 0.
func (c Counts) Percent() int {
	if c.Total <= 0 {
		return 0
	}
	return (c.Done*100 + c.Total/2) / c.Total
}

// Complete reports whether every task is done. Empty groups are never complete.
func (c Counts) Complete() bool {
	return c.Total > 0 && c.Done == c.Total
}

func (c *Counts) add(checked bool) {
	c.Total++
	if checked {
		c.Done++
	}
}

// SectionProgress is the completion of one section.
type SectionProgress struct {
	Label string `json:"label,omitempty"`
	Counts
}

// StepProgress is the completion of one step.
type StepProgress struct {
	Number   int               `json:"number"`
	Title    string            `json:"title"`
	Sections []SectionProgress `json:"sections"`
	Counts
}

// Progress is the completion of the whole checklist.
type Progress struct {
	Steps []StepProgress `json:"steps"`
	Counts
}

// Step returns the progress of the step with the given number.
func (p Progress) Step(number int) (StepProgress, bool) {
	for _, s := range p.Steps {
		if s.Number == number {
			return s, true
		}
	}
	return StepProgress{}, false
}

// ComputeProgress aggregates manual check state over the definition.
// Keys in checked that are not task ids are ignored.
func ComputeProgress(def *Definition, checked map[string]bool) Progress {
	var p Progress
	p.Steps = make([]StepProgress, 0, len(def.Steps))
	for _, step := range def.Steps {
		sp := StepProgress{
			Number:   step.Number,
			Title:    step.Title,
			Sections: make([]SectionProgress, 0, len(step.Sections)),
		}
		for _, sec := range step.Sections {
			cp := SectionProgress{Label: sec.Label}
			for _, task := range sec.Tasks {
				done := checked[task.ID]
				cp.add(done)
				sp.add(done)
				p.add(done)
			}
			sp.Sections = append(sp.Sections, cp)
		}
		p.Steps = append(p.Steps, sp)
	}
	return p
}
