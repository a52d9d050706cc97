/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package snapshottest provides an in-memory snapshot.Source for tests.
package snapshottest

import (
	"context"
	"slices"
	"sync"

	"chainguard.dev/checklistaf/snapshot"
)

// Source is a configurable in-memory snapshot.Source.
//
// Errs maps a source name (snapshot.SourceAgents, ...) to the error that read
// returns. Block maps a source name to a channel the read waits on before
// answering, which lets tests hold a fetch in flight.
type Source struct {
	mu sync.Mutex

	Agents           []snapshot.Agent
	Datasets         []snapshot.Dataset
	TestCases        map[string][]snapshot.TestCase
	Evaluations      []snapshot.Evaluation
	Annotated        map[string]bool // evaluation id -> has annotations
	ProductionTraces int

	Errs  map[string]error
	Block map[string]chan struct{}

	calls map[string]int
	asked [][]string
}

var _ snapshot.Source = (*Source)(nil)

// Calls returns how many times the named source was read.
func (s *Source) Calls(source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[source]
}

// AnnotationProbes returns the evaluation id lists passed to HasAnnotations.
func (s *Source) AnnotationProbes() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.asked)
}

// Update mutates the source under its lock.
func (s *Source) Update(fn func(*Source)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *Source) enter(ctx context.Context, source string) error {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[source]++
	block := s.Block[source]
	err := s.Errs[source]
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// ListAgents implements snapshot.Source.
func (s *Source) ListAgents(ctx context.Context) ([]snapshot.Agent, error) {
	if err := s.enter(ctx, snapshot.SourceAgents); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.Agents), nil
}

// ListDatasets implements snapshot.Source.
func (s *Source) ListDatasets(ctx context.Context) ([]snapshot.Dataset, error) {
	if err := s.enter(ctx, snapshot.SourceDatasets); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.Datasets), nil
}

// ListTestCases implements snapshot.Source.
func (s *Source) ListTestCases(ctx context.Context, datasetID string) ([]snapshot.TestCase, error) {
	if err := s.enter(ctx, snapshot.SourceTestCases); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Errs[snapshot.SourceTestCases+":"+datasetID]; err != nil {
		return nil, err
	}
	return slices.Clone(s.TestCases[datasetID]), nil
}

// ListEvaluations implements snapshot.Source.
func (s *Source) ListEvaluations(ctx context.Context) ([]snapshot.Evaluation, error) {
	if err := s.enter(ctx, snapshot.SourceEvaluations); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.Evaluations), nil
}

// HasAnnotations implements snapshot.Source.
func (s *Source) HasAnnotations(ctx context.Context, evaluationIDs []string) (bool, error) {
	if err := s.enter(ctx, snapshot.SourceAnnotations); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, slices.Clone(evaluationIDs))
	for _, id := range evaluationIDs {
		if s.Annotated[id] {
			return true, nil
		}
	}
	return false, nil
}

// CountProductionTraces implements snapshot.Source.
func (s *Source) CountProductionTraces(ctx context.Context) (int, error) {
	if err := s.enter(ctx, snapshot.SourceTraces); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ProductionTraces, nil
}
