/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/checklistaf/checklist"
	"chainguard.dev/checklistaf/reconcilers/checklistreconciler"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	barWidth = 30
	// Lines taken by the header and footer around the viewport.
	chromeHeight = 6
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	stepStyle    = lipgloss.NewStyle().Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	barFullStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	barNoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// taskRow is one selectable line.
type taskRow struct {
	step    int // step number
	section int // index within the step
	task    checklist.Task
}

// stateChangedMsg is delivered when the engine state changed outside the TUI.
type stateChangedMsg struct{}

type model struct {
	ctx     context.Context
	engine  *checklistreconciler.Engine
	updates <-chan struct{}

	rows   []taskRow
	state  checklistreconciler.State
	cursor int
	status string
	help   bool

	viewport viewport.Model
	ready    bool
}

func newModel(ctx context.Context, engine *checklistreconciler.Engine, updates <-chan struct{}) *model {
	m := &model{ctx: ctx, engine: engine, updates: updates}
	for _, step := range engine.Definition().Steps {
		for si, sec := range step.Sections {
			for _, task := range sec.Tasks {
				m.rows = append(m.rows, taskRow{step: step.Number, section: si, task: task})
			}
		}
	}
	m.state = engine.State()
	return m
}

func (m *model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *model) waitForChange() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-m.updates; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := max(msg.Height-chromeHeight, 3)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}

	case stateChangedMsg:
		m.state = m.engine.State()
		m.syncViewport()
		return m, m.waitForChange()

	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			return m, cmd
		}
	}
	m.syncViewport()
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if len(m.rows) == 0 {
		if s := msg.String(); s == "q" || s == "ctrl+c" || s == "esc" {
			return tea.Quit
		}
		return nil
	}
	row := m.rows[m.cursor]

	switch msg.String() {
	case "q", "Q", "ctrl+c", "esc":
		return tea.Quit
	case "k", "up":
		m.cursor = max(m.cursor-1, 0)
	case "j", "down":
		m.cursor = min(m.cursor+1, len(m.rows)-1)
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.rows) - 1
	case " ", "enter", "x":
		m.report(m.engine.Toggle(m.ctx, row.task.ID))
	case "s":
		m.report(m.engine.ToggleSection(m.ctx, row.step, row.section))
	case "r":
		if err := m.engine.ResetStep(m.ctx, row.step); err != nil {
			m.report(err)
		} else {
			m.status = fmt.Sprintf("Reset step %d", row.step)
		}
	case "R":
		m.engine.ResetAll(m.ctx)
		m.status = "Reset all steps"
	case "c":
		if row.task.Copy == "" {
			m.status = "Nothing to copy for this task"
		} else {
			m.status = "Copy: " + strings.TrimSpace(row.task.Copy)
		}
	case "o":
		if row.task.Link == "" {
			m.status = "No link for this task"
		} else {
			m.status = "Open: " + row.task.Link
		}
	case "?":
		m.help = !m.help
	}
	m.state = m.engine.State()
	return nil
}

func (m *model) report(err error) {
	if err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	m.status = ""
}

// body renders the checklist and returns the line the cursor is on.
func (m *model) body() (string, int) {
	var (
		b          strings.Builder
		line       int
		cursorLine int
		idx        int
	)
	writeln := func(s string) {
		b.WriteString(s)
		b.WriteString("\n")
		line++
	}

	progress := checklist.ComputeProgress(m.engine.Definition(), m.state.Manual)
	for i, step := range m.engine.Definition().Steps {
		sp := progress.Steps[i]
		heading := stepStyle.Render(fmt.Sprintf("Step %d: %s", step.Number, step.Title)) +
			dimStyle.Render(fmt.Sprintf("  %d/%d", sp.Done, sp.Total))
		if sp.Complete() {
			heading += " " + doneStyle.Render("done")
		}
		writeln(heading)

		for _, sec := range step.Sections {
			if sec.Label != "" {
				writeln("  " + labelStyle.Render(sec.Label))
			}
			for _, task := range sec.Tasks {
				pointer := "  "
				if idx == m.cursor {
					pointer = cursorStyle.Render("> ")
					cursorLine = line
				}
				box := "[ ]"
				text := task.Text
				if m.state.Checked(task.ID) {
					box = doneStyle.Render("[x]")
					text = dimStyle.Render(text)
				}
				suffix := ""
				if m.state.Auto.Has(task.ID) {
					suffix = dimStyle.Render(" (detected)")
				}
				writeln(fmt.Sprintf("  %s%s %s%s", pointer, box, text, suffix))
				idx++
			}
		}
		writeln("")
	}
	return b.String(), cursorLine
}

func (m *model) syncViewport() {
	if !m.ready {
		return
	}
	content, cursorLine := m.body()
	m.viewport.SetContent(content)
	switch {
	case m.cursor == 0:
		m.viewport.GotoTop()
	case cursorLine < m.viewport.YOffset:
		m.viewport.SetYOffset(cursorLine)
	case cursorLine >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(cursorLine - m.viewport.Height + 1)
	}
}

func (m *model) View() string {
	progress := checklist.ComputeProgress(m.engine.Definition(), m.state.Manual)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Onboarding checklist"))
	b.WriteString("\n")
	b.WriteString(bar(progress.Percent()))
	fmt.Fprintf(&b, " %d%% (%d/%d)\n\n", progress.Percent(), progress.Done, progress.Total)

	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		content, _ := m.body()
		b.WriteString(content)
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	if m.help {
		b.WriteString(dimStyle.Render("↑/k ↓/j move • space toggle • s toggle section • r reset step • R reset all • c copy • o link • q quit"))
	} else {
		b.WriteString(dimStyle.Render("? help • q quit"))
	}
	return b.String()
}

func bar(percent int) string {
	full := percent * barWidth / 100
	return barFullStyle.Render(strings.Repeat("█", full)) +
		barNoneStyle.Render(strings.Repeat("░", barWidth-full))
}
