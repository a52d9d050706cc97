/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package evalclient implements snapshot.Source over the evaluation-management
// service's read-only JSON endpoints.
//
//	c, err := evalclient.New("http://localhost:8000", evalclient.WithUserAgent("checklist/1.0"))
//	if err != nil {
//	    return err
//	}
//	f := snapshot.NewFetcher(c)
//
// Only the fields the onboarding checklist needs are decoded. Evaluations
// are returned in the order the service lists them, which must be newest
// first: the fetcher probes annotations on the leading completed entries.
// Requests go through httpmetrics.Transport unless WithHTTPClient replaces
// the client.
package evalclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"chainguard.dev/checklistaf/snapshot"
	"github.com/chainguard-dev/clog"
	"github.com/chainguard-dev/terraform-infra-common/pkg/httpmetrics"
)

const (
	defaultUserAgent = "checklistaf"
	maxResponseBytes = 8 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the http.Client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// Client reads from the evaluation-management service.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
}

var _ snapshot.Source = (*Client)(nil)

// New constructs a Client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:      u,
		http:      &http.Client{Transport: httpmetrics.Transport},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListAgents implements snapshot.Source.
func (c *Client) ListAgents(ctx context.Context) ([]snapshot.Agent, error) {
	var out []snapshot.Agent
	if err := c.get(ctx, "/api/agents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDatasets implements snapshot.Source.
func (c *Client) ListDatasets(ctx context.Context) ([]snapshot.Dataset, error) {
	var out []snapshot.Dataset
	if err := c.get(ctx, "/api/datasets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTestCases implements snapshot.Source.
func (c *Client) ListTestCases(ctx context.Context, datasetID string) ([]snapshot.TestCase, error) {
	var out []snapshot.TestCase
	if err := c.get(ctx, "/api/datasets/"+url.PathEscape(datasetID)+"/test-cases", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEvaluations implements snapshot.Source. The service's order is kept
// as is; it must list the newest evaluation first.
func (c *Client) ListEvaluations(ctx context.Context) ([]snapshot.Evaluation, error) {
	var out []snapshot.Evaluation
	if err := c.get(ctx, "/api/evaluations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HasAnnotations implements snapshot.Source. It probes each evaluation in
// turn and stops at the first one carrying an annotation.
func (c *Client) HasAnnotations(ctx context.Context, evaluationIDs []string) (bool, error) {
	q := url.Values{"limit": {"1"}}
	var errs []error
	for _, id := range evaluationIDs {
		var anns []json.RawMessage
		if err := c.get(ctx, "/api/evaluations/"+url.PathEscape(id)+"/annotations", q, &anns); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			clog.FromContext(ctx).With("evaluation", id).Debugf("Annotation probe failed: %v", err)
			errs = append(errs, err)
			continue
		}
		if len(anns) > 0 {
			return true, nil
		}
	}
	if len(errs) > 0 && len(errs) == len(evaluationIDs) {
		return false, errors.Join(errs...)
	}
	return false, nil
}

// CountProductionTraces implements snapshot.Source.
func (c *Client) CountProductionTraces(ctx context.Context) (int, error) {
	var out struct {
		Total int `json:"total"`
	}
	q := url.Values{"source": {"production"}, "limit": {"1"}}
	if err := c.get(ctx, "/api/traces", q, &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, into any) error {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &StatusError{Method: http.MethodGet, URL: u.Redacted(), StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(into); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
