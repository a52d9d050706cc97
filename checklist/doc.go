/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package checklist defines the static shape of the guided onboarding checklist.
//
// A Definition is an ordered list of Steps, each holding ordered Sections of
// Tasks. Tasks may carry a detection Predicate describing a condition over
// external state that, when true, implies the task is complete. Definitions
// are built once (from the embedded default or a YAML file), validated, and
// never mutated afterwards.
//
// # Basic Usage
//
//	def, err := checklist.Default()
//	if err != nil {
//	    return err
//	}
//	for _, step := range def.Steps {
//	    fmt.Println(step.Number, step.Title)
//	}
//
// Custom definitions are loaded from YAML:
//
//	def, err := checklist.LoadFile("onboarding.yaml")
//
// # Predicates
//
// Detection keys are parsed once, when the definition is built, into a tagged
// Predicate value:
//
//	has_agents                 flag
//	has_testcases:5            count (at least five test cases)
//	has_eval_completed         count with the default minimum of one
//	has_tc_mode:llm_judge      enum (some test case uses this assertion mode)
//
// Names the parser does not recognize become KindUnknown predicates, which
// never resolve true.
//
// # Progress
//
// ComputeProgress derives overall, per-step and per-section completion from a
// manual check mapping. It is a pure linear scan and safe to call on every
// render.
package checklist
