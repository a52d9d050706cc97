/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Source names used in Snapshot.Failed and metric labels.
const (
	SourceAgents      = "agents"
	SourceDatasets    = "datasets"
	SourceTestCases   = "testcases"
	SourceEvaluations = "evaluations"
	SourceAnnotations = "annotations"
	SourceTraces      = "traces"
)

const (
	defaultSourceTimeout     = 3 * time.Second
	defaultRecentEvaluations = 5
)

// ErrAllSourcesFailed is returned by Fetch when no top-level source answered.
var ErrAllSourcesFailed = errors.New("all snapshot sources failed")

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithSourceTimeout bounds each individual source read.
func WithSourceTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRecentEvaluations sets how many of the newest completed evaluations the
// annotation probe inspects.
func WithRecentEvaluations(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.recent = n
		}
	}
}

// Fetcher assembles Snapshots from a Source.
type Fetcher struct {
	src     Source
	timeout time.Duration
	recent  int
	now     func() time.Time
}

// NewFetcher constructs a Fetcher reading from src.
func NewFetcher(src Source, opts ...Option) *Fetcher {
	f := &Fetcher{
		src:     src,
		timeout: defaultSourceTimeout,
		recent:  defaultRecentEvaluations,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads every source and returns the assembled snapshot.
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	tr := otel.Tracer("chainguard.checklist.snapshot",
		oteltrace.WithInstrumentationVersion("1.0.0"))
	ctx, span := tr.Start(ctx, "checklist.snapshot.fetch")
	defer span.End()

	start := f.now()
	defer func() { fetchDuration.Observe(time.Since(start).Seconds()) }()

	snap := &Snapshot{TestCases: map[string][]TestCase{}}
	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(source, detail string, err error) {
		sourceFailures.WithLabelValues(source).Inc()
		name := source
		if detail != "" {
			name = source + ":" + detail
		}
		clog.FromContext(ctx).With("source", name).Warnf("Snapshot source failed: %v", err)

		mu.Lock()
		defer mu.Unlock()
		snap.Failed = append(snap.Failed, name)
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}

	// Phase 1: independent top-level reads.
	var g errgroup.Group
	g.Go(func() error {
		v, err := within(ctx, f.timeout, f.src.ListAgents)
		if err != nil {
			fail(SourceAgents, "", err)
			return nil
		}
		snap.Agents = v
		return nil
	})
	g.Go(func() error {
		v, err := within(ctx, f.timeout, f.src.ListDatasets)
		if err != nil {
			fail(SourceDatasets, "", err)
			return nil
		}
		snap.Datasets = v
		return nil
	})
	g.Go(func() error {
		v, err := within(ctx, f.timeout, f.src.ListEvaluations)
		if err != nil {
			fail(SourceEvaluations, "", err)
			return nil
		}
		snap.Evaluations = v
		return nil
	})
	g.Go(func() error {
		v, err := within(ctx, f.timeout, f.src.CountProductionTraces)
		if err != nil {
			fail(SourceTraces, "", err)
			return nil
		}
		snap.ProductionTraces = v
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(errs) == 4 {
		err := fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
		span.RecordError(err)
		span.SetStatus(codes.Error, "all sources failed")
		return nil, err
	}

	// Phase 2: reads that depend on phase 1 results.
	var g2 errgroup.Group
	for _, ds := range snap.Datasets {
		g2.Go(func() error {
			v, err := within(ctx, f.timeout, func(ctx context.Context) ([]TestCase, error) {
				return f.src.ListTestCases(ctx, ds.ID)
			})
			if err != nil {
				fail(SourceTestCases, ds.ID, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			snap.TestCases[ds.ID] = v
			return nil
		})
	}
	if recent := f.recentCompleted(snap); len(recent) > 0 {
		g2.Go(func() error {
			v, err := within(ctx, f.timeout, func(ctx context.Context) (bool, error) {
				return f.src.HasAnnotations(ctx, recent)
			})
			if err != nil {
				fail(SourceAnnotations, "", err)
				return nil
			}
			snap.HasAnnotations = v
			return nil
		})
	}
	_ = g2.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	slices.Sort(snap.Failed)
	snap.FetchedAt = f.now()
	span.SetAttributes(
		attribute.Int("checklist.snapshot.agents", len(snap.Agents)),
		attribute.Int("checklist.snapshot.datasets", len(snap.Datasets)),
		attribute.Int("checklist.snapshot.evaluations", len(snap.Evaluations)),
		attribute.StringSlice("checklist.snapshot.failed", snap.Failed),
	)
	return snap, nil
}

func (f *Fetcher) recentCompleted(snap *Snapshot) []string {
	var ids []string
	for _, e := range snap.CompletedEvaluations() {
		if len(ids) == f.recent {
			break
		}
		ids = append(ids, e.ID)
	}
	return ids
}

type result[T any] struct {
	val T
	err error
}

// within runs fn under a timeout. A call that ignores its context is
// abandoned when the timeout fires; its eventual result is dropped.
func within[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				ch <- result[T]{val: zero, err: fmt.Errorf("source panicked: %v", r)}
			}
		}()
		v, err := fn(ctx)
		ch <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
