/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"bytes"
	"fmt"
	"strings"

	"chainguard.dev/checklistaf/checklist"
)

const (
	markChecked   = "✅"
	markUnchecked = "⬜"
	markAuto      = "auto"
)

// Input is the state a report is rendered from.
type Input struct {
	// Checked is the manual check state, keyed by task id.
	Checked map[string]bool
	// Auto is the set of ids the last cycle detected. May be nil.
	Auto checklist.IDSet
	// Failed names snapshot sources that failed during the last fetch.
	Failed []string
}

// Markdown renders the full progress report.
func Markdown(def *checklist.Definition, in Input) string {
	progress := checklist.ComputeProgress(def, in.Checked)

	var report strings.Builder
	fmt.Fprintf(&report, "# Onboarding checklist: %d%% (%d/%d)\n\n",
		progress.Percent(), progress.Done, progress.Total)

	if len(in.Failed) > 0 {
		fmt.Fprintf(&report, "> ⚠️ Detection is partial, these sources failed: %s\n\n",
			strings.Join(in.Failed, ", "))
	}

	report.WriteString(Summary(progress))
	report.WriteString("\n")

	for i, step := range def.Steps {
		sp := progress.Steps[i]
		heading := fmt.Sprintf("## Step %d: %s (%d/%d)", step.Number, step.Title, sp.Done, sp.Total)
		if sp.Complete() {
			heading += " " + markChecked
		}
		report.WriteString(heading)
		report.WriteString("\n\n")
		report.WriteString(stepTable(step, in))
		report.WriteString(snippets(step))
		report.WriteString("\n")
	}
	return report.String()
}

// Summary renders one row per step.
func Summary(p checklist.Progress) string {
	var buf bytes.Buffer
	table := newMarkdownTable([]string{"Step", "Title", "Done", "Progress"}, &buf)
	for _, sp := range p.Steps {
		done := fmt.Sprintf("%d/%d", sp.Done, sp.Total)
		if sp.Complete() {
			done = markChecked + " " + done
		}
		_ = table.Append([]string{
			fmt.Sprint(sp.Number),
			sp.Title,
			done,
			fmt.Sprintf("%d%%", sp.Percent()),
		})
	}
	_ = table.Append([]string{"", "Total", fmt.Sprintf("%d/%d", p.Done, p.Total), fmt.Sprintf("%d%%", p.Percent())})
	_ = table.Render()
	return buf.String()
}

func stepTable(step checklist.Step, in Input) string {
	var buf bytes.Buffer
	table := newMarkdownTable([]string{"", "Section", "Task", "ID", "Detect"}, &buf)
	for si, sec := range step.Sections {
		label := sec.Label
		if label == "" {
			label = fmt.Sprintf("#%d", si)
		}
		for ti, task := range sec.Tasks {
			mark := markUnchecked
			if in.Checked[task.ID] {
				mark = markChecked
			}
			detect := "-"
			if task.Detect != nil {
				detect = "`" + task.Detect.String() + "`"
				if in.Auto.Has(task.ID) {
					detect += " (" + markAuto + ")"
				}
			}
			// Only the first row of a section carries its label.
			if ti > 0 {
				label = ""
			}
			_ = table.Append([]string{mark, label, taskText(task), task.ID, detect})
		}
	}
	_ = table.Render()
	return buf.String()
}

func taskText(task checklist.Task) string {
	text := strings.ReplaceAll(task.Text, "|", `\|`)
	if task.Link == "" {
		return text
	}
	return fmt.Sprintf("[%s](%s)", text, task.Link)
}

func snippets(step checklist.Step) string {
	var b strings.Builder
	for _, sec := range step.Sections {
		for _, task := range sec.Tasks {
			if task.Copy == "" {
				continue
			}
			fmt.Fprintf(&b, "\n`%s`:\n\n```\n%s\n```\n", task.ID, strings.TrimRight(task.Copy, "\n"))
		}
	}
	return b.String()
}
