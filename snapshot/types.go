/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package snapshot

import (
	"context"
	"time"
)

// StatusCompleted is the evaluation status the checklist counts as done.
const StatusCompleted = "completed"

// Agent is a registered agent.
type Agent struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PromptVersion int    `json:"prompt_version"`
}

// Dataset is a test dataset.
type Dataset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TestCase is a single test case within a dataset.
type TestCase struct {
	ID            string `json:"id"`
	AssertionMode string `json:"assertion_mode"`
}

// Evaluation is one evaluation run.
type Evaluation struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Source is the read-only view of the evaluation-management service.
// Implementations should honor context cancellation; the Fetcher abandons
// calls that outlive their timeout either way.
type Source interface {
	ListAgents(ctx context.Context) ([]Agent, error)
	ListDatasets(ctx context.Context) ([]Dataset, error)
	ListTestCases(ctx context.Context, datasetID string) ([]TestCase, error)
	// ListEvaluations returns evaluations newest first.
	ListEvaluations(ctx context.Context) ([]Evaluation, error)
	// HasAnnotations reports whether any of the evaluations has at least one annotation.
	HasAnnotations(ctx context.Context, evaluationIDs []string) (bool, error)
	CountProductionTraces(ctx context.Context) (int, error)
}

// Snapshot is one aggregated read of external state.
type Snapshot struct {
	Agents           []Agent
	Datasets         []Dataset
	TestCases        map[string][]TestCase // keyed by dataset id
	Evaluations      []Evaluation
	HasAnnotations   bool
	ProductionTraces int

	// Failed names the sources that failed or timed out during the fetch.
	Failed    []string
	FetchedAt time.Time
}

// TestCaseCount returns the number of test cases across all datasets.
func (s *Snapshot) TestCaseCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, tcs := range s.TestCases {
		n += len(tcs)
	}
	return n
}

// CompletedEvaluations returns the completed evaluations in source order.
func (s *Snapshot) CompletedEvaluations() []Evaluation {
	if s == nil {
		return nil
	}
	var out []Evaluation
	for _, e := range s.Evaluations {
		if e.Status == StatusCompleted {
			out = append(out, e)
		}
	}
	return out
}
