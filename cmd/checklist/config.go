/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"chainguard.dev/checklistaf/checklist"
	"chainguard.dev/checklistaf/reconcilers/checklistreconciler"
	"chainguard.dev/checklistaf/reconcilers/checklistreconciler/statusmanager"
	"chainguard.dev/checklistaf/snapshot"
	"chainguard.dev/checklistaf/snapshot/evalclient"
	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
)

// State backends.
const (
	backendFile   = "file"
	backendBadger = "badger"
	backendMemory = "memory"
)

type config struct {
	EvalAPIURL       string `env:"EVAL_API_URL,default=http://localhost:8000"`
	EvalAPIUserAgent string `env:"EVAL_API_USER_AGENT"`

	StateBackend string `env:"CHECKLIST_STATE_BACKEND,default=file"`
	// StateDir defaults to $HOME/.checklistaf.
	StateDir   string `env:"CHECKLIST_STATE_DIR"`
	StateKey   string `env:"CHECKLIST_STATE_KEY,default=onboarding-checklist"`
	Definition string `env:"CHECKLIST_DEFINITION"`

	PollInterval  time.Duration `env:"POLL_INTERVAL,default=10s"`
	SourceTimeout time.Duration `env:"SOURCE_TIMEOUT,default=3s"`
	MetricsPort   int           `env:"METRICS_PORT,default=0"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
	LogFile  string `env:"LOG_FILE"`
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (*config, error) {
	var cfg config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving default state directory: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".checklistaf")
	}
	return &cfg, nil
}

func (c *config) validate() error {
	var errs []error
	switch c.StateBackend {
	case backendFile, backendBadger, backendMemory:
	default:
		errs = append(errs, fmt.Errorf("CHECKLIST_STATE_BACKEND: unknown backend %q (want file, badger or memory)", c.StateBackend))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL: must be positive, got %v", c.PollInterval))
	}
	if c.SourceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SOURCE_TIMEOUT: must be positive, got %v", c.SourceTimeout))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("METRICS_PORT: out of range: %d", c.MetricsPort))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return lvl, nil
}

func newLogger(w io.Writer, level string) (*clog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	return clog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func (c *config) loadDefinition() (*checklist.Definition, error) {
	if c.Definition == "" {
		return checklist.Default()
	}
	return checklist.LoadFile(c.Definition)
}

// openStore returns the configured store and a func releasing it.
func (c *config) openStore(ctx context.Context) (statusmanager.Store, func() error, error) {
	noop := func() error { return nil }
	switch c.StateBackend {
	case backendMemory:
		return statusmanager.NewMemory(), noop, nil
	case backendFile:
		s, err := statusmanager.NewFile(c.StateDir, c.StateKey)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case backendBadger:
		db, err := statusmanager.OpenBadger(ctx, statusmanager.BadgerConfig{
			Path:       filepath.Join(c.StateDir, "badger"),
			SyncWrites: true,
		})
		if err != nil {
			return nil, nil, err
		}
		s, err := statusmanager.NewBadger(db, c.StateKey)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", c.StateBackend)
	}
}

func (c *config) newFetcher() (*snapshot.Fetcher, error) {
	client, err := evalclient.New(c.EvalAPIURL, evalclient.WithUserAgent(c.EvalAPIUserAgent))
	if err != nil {
		return nil, fmt.Errorf("creating evaluation API client: %w", err)
	}
	return snapshot.NewFetcher(client, snapshot.WithSourceTimeout(c.SourceTimeout)), nil
}

// session is an engine over the configured definition and store.
type session struct {
	def    *checklist.Definition
	engine *checklistreconciler.Engine
	close  func() error
}

func (c *config) open(ctx context.Context, opts ...checklistreconciler.Option) (*session, error) {
	def, err := c.loadDefinition()
	if err != nil {
		return nil, err
	}
	store, closer, err := c.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	engine, err := checklistreconciler.New(ctx, def, store, opts...)
	if err != nil {
		closer()
		return nil, err
	}
	return &session{def: def, engine: engine, close: closer}, nil
}
