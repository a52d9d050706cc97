/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main implements the onboarding checklist CLI.
//
// The checklist tracks a new user's progress through registering an agent,
// building a dataset, running evaluations and going to production. Tasks are
// checked by hand or detected automatically by polling the evaluation API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/chainguard-dev/terraform-infra-common/pkg/httpmetrics"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the CLI with tracing installed, flushing spans on return.
func run(ctx context.Context) error {
	defer httpmetrics.SetupTracer(ctx)()
	return newRootCmd(envconfig.OsLookuper(), os.Stderr).ExecuteContext(ctx)
}

// app carries what every subcommand shares.
type app struct {
	lookuper envconfig.Lookuper
	logOut   io.Writer
	cfg      *config
}

func newRootCmd(lookuper envconfig.Lookuper, logOut io.Writer) *cobra.Command {
	a := &app{lookuper: lookuper, logOut: logOut}

	var (
		apiURL, backend, stateDir, definition, logLevel string
	)
	root := &cobra.Command{
		Use:           "checklist",
		Short:         "Guided onboarding checklist for the evaluation dashboard",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, a.lookuper)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("api-url") {
				cfg.EvalAPIURL = apiURL
			}
			if flags.Changed("state-backend") {
				cfg.StateBackend = backend
			}
			if flags.Changed("state-dir") {
				cfg.StateDir = stateDir
			}
			if flags.Changed("definition") {
				cfg.Definition = definition
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := newLogger(a.logOut, cfg.LogLevel)
			if err != nil {
				return err
			}
			cmd.SetContext(clog.WithLogger(ctx, logger))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&apiURL, "api-url", "", "Evaluation API base URL (overrides EVAL_API_URL)")
	pf.StringVar(&backend, "state-backend", "", "State backend: file, badger or memory (overrides CHECKLIST_STATE_BACKEND)")
	pf.StringVar(&stateDir, "state-dir", "", "State directory (overrides CHECKLIST_STATE_DIR)")
	pf.StringVar(&definition, "definition", "", "Checklist definition YAML (overrides CHECKLIST_DEFINITION)")
	pf.StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	root.AddCommand(
		a.watchCmd(),
		a.statusCmd(),
		a.toggleCmd(),
		a.toggleSectionCmd(),
		a.resetCmd(),
		a.definitionCmd(),
	)
	return root
}
