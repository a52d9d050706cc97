/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"chainguard.dev/checklistaf/checklist"
	"chainguard.dev/checklistaf/report"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func (a *app) statusCmd() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Run one detection cycle and print the progress report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			var failed []string
			if !offline {
				fetcher, err := a.cfg.newFetcher()
				if err != nil {
					return err
				}
				gen := s.engine.BeginCycle()
				snap, err := fetcher.Fetch(ctx)
				if err != nil {
					// Detection failures never fail the command.
					clog.WarnContextf(ctx, "Detection cycle failed, showing saved state: %v", err)
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: detection unavailable: %v\n", err)
				} else {
					s.engine.ApplyCycle(ctx, gen, snap)
					failed = snap.Failed
				}
			}
			if len(failed) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: detection is partial, failed sources: %s\n", strings.Join(failed, ", "))
			}

			st := s.engine.State()
			fmt.Fprint(cmd.OutOrStdout(), report.Markdown(s.def, report.Input{
				Checked: st.Manual,
				Auto:    st.Auto,
				Failed:  failed,
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip detection and report the saved state")
	return cmd
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <task-id>",
		Short: "Check or uncheck one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			id := args[0]
			if err := s.engine.Toggle(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, checkedWord(s.engine.State().Checked(id)))
			return nil
		},
	}
}

func (a *app) toggleSectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-section <step> <section-index>",
		Short: "Check every task in a section, or uncheck them if all are checked",
		Long: `Check every task in a section, or uncheck them if all are checked.

Sections are numbered from zero within their step, in definition order.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parsing step %q: %w", args[0], err)
			}
			section, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parsing section index %q: %w", args[1], err)
			}

			ctx := cmd.Context()
			s, err := a.cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.engine.ToggleSection(ctx, step, section); err != nil {
				return err
			}
			st := s.engine.State()
			stepDef, _ := s.def.Step(step)
			for _, id := range stepDef.Sections[section].TaskIDs() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, checkedWord(st.Checked(id)))
			}
			return nil
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	var step int
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear check marks for one step or the whole checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			if cmd.Flags().Changed("step") {
				if err := s.engine.ResetStep(ctx, step); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset step %d\n", step)
				return nil
			}
			s.engine.ResetAll(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), "Reset all steps")
			return nil
		},
	}
	cmd.Flags().IntVar(&step, "step", 0, "Only reset this step")
	return cmd
}

func (a *app) definitionCmd() *cobra.Command {
	var schema bool
	cmd := &cobra.Command{
		Use:   "definition",
		Short: "Print the effective checklist definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schema {
				b, err := json.MarshalIndent(checklist.Schema(), "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling schema: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			def, err := a.cfg.loadDefinition()
			if err != nil {
				return err
			}
			b, err := def.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().BoolVar(&schema, "schema", false, "Print the JSON schema of the definition format instead")
	return cmd
}

func checkedWord(checked bool) string {
	if checked {
		return "checked"
	}
	return "unchecked"
}
