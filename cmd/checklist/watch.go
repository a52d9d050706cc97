/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"chainguard.dev/checklistaf/reconcilers/checklistreconciler"
	"github.com/chainguard-dev/clog"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the interactive checklist with detection running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// The TUI owns the terminal, so logs go to a file.
			logPath := a.cfg.LogFile
			if logPath == "" {
				logPath = filepath.Join(a.cfg.StateDir, "watch.log")
			}
			if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
				return fmt.Errorf("creating log directory: %w", err)
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer logFile.Close()
			logger, err := newLogger(logFile, a.cfg.LogLevel)
			if err != nil {
				return err
			}
			ctx = clog.WithLogger(ctx, logger)

			updates := make(chan struct{}, 1)
			s, err := a.cfg.open(ctx, checklistreconciler.WithOnChange(func(checklistreconciler.State) {
				// Coalesce: the TUI re-reads the latest state anyway.
				select {
				case updates <- struct{}{}:
				default:
				}
			}))
			if err != nil {
				return err
			}
			defer s.close()

			fetcher, err := a.cfg.newFetcher()
			if err != nil {
				return err
			}

			stopMetrics := serveMetrics(ctx, a.cfg.MetricsPort)
			defer stopMetrics()

			clog.InfoContextf(ctx, "Watching %s every %v", a.cfg.EvalAPIURL, a.cfg.PollInterval)
			h := checklistreconciler.StartPolling(ctx, s.engine, fetcher,
				checklistreconciler.WithInterval(a.cfg.PollInterval))
			defer func() {
				// Drain in-flight fetches before the store is closed.
				h.Stop()
				h.Wait()
			}()

			p := tea.NewProgram(newModel(ctx, s.engine, updates),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("running checklist UI: %w", err)
			}
			return nil
		},
	}
}

// serveMetrics exposes the Prometheus registry on port and returns a func
// shutting the server down. A zero port disables it.
func serveMetrics(ctx context.Context, port int) func() {
	if port <= 0 {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		clog.InfoContextf(ctx, "Serving metrics on :%d/metrics", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.ErrorContextf(ctx, "Metrics server failed: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			clog.WarnContextf(ctx, "Shutting down metrics server: %v", err)
		}
	}
}
