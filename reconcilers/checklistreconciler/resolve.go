/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklistreconciler

import (
	"strings"

	"chainguard.dev/checklistaf/checklist"
	"chainguard.dev/checklistaf/snapshot"
)

// Resolve evaluates a predicate against a snapshot. It never fails: unknown
// predicates, a nil snapshot, and any panic during evaluation all resolve
// false.
func Resolve(p checklist.Predicate, snap *snapshot.Snapshot) (ok bool) {
	if snap == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	switch p.Kind {
	case checklist.KindFlag:
		return resolveFlag(p.Name, snap)
	case checklist.KindCount:
		return p.Min > 0 && count(p.Name, snap) >= p.Min
	case checklist.KindEnum:
		return resolveEnum(p.Name, p.Value, snap)
	default:
		return false
	}
}

func resolveFlag(name string, snap *snapshot.Snapshot) bool {
	switch name {
	case checklist.HasAgents:
		return len(snap.Agents) > 0
	case checklist.HasDatasets:
		return len(snap.Datasets) > 0
	case checklist.HasAnnotations:
		return snap.HasAnnotations
	case checklist.HasPromptV2:
		for _, a := range snap.Agents {
			if a.PromptVersion >= 2 {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// count returns -1 for names that are not counts, which no Min satisfies.
func count(name string, snap *snapshot.Snapshot) int {
	switch name {
	case checklist.HasTestCases:
		return snap.TestCaseCount()
	case checklist.HasEvalCompleted:
		return len(snap.CompletedEvaluations())
	case checklist.HasProductionTraces:
		return snap.ProductionTraces
	default:
		return -1
	}
}

func resolveEnum(name, value string, snap *snapshot.Snapshot) bool {
	switch name {
	case checklist.HasTestCaseMode:
		if value == "" {
			return false
		}
		for _, tcs := range snap.TestCases {
			for _, tc := range tcs {
				if strings.EqualFold(tc.AssertionMode, value) {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// Detect returns the ids of every task whose predicate resolves true.
// Tasks without a predicate are never detected.
func Detect(def *checklist.Definition, snap *snapshot.Snapshot) checklist.IDSet {
	out := checklist.IDSet{}
	if def == nil || snap == nil {
		return out
	}
	for _, step := range def.Steps {
		for _, sec := range step.Sections {
			for _, task := range sec.Tasks {
				if task.Detect != nil && Resolve(*task.Detect, snap) {
					out.Add(task.ID)
				}
			}
		}
	}
	return out
}
