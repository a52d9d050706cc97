/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package report renders checklist progress as markdown.

# Usage

	st := engine.State()
	fmt.Print(report.Markdown(engine.Definition(), report.Input{
		Checked: st.Manual,
		Auto:    st.Auto,
	}))

# Report Format

The report opens with the overall completion and a summary table with one
row per step. Each step then gets its own table listing every task with its
check state, the detection predicate if any, and a marker on tasks the last
poll cycle detected. Copy payloads are listed below the step's table as
fenced code blocks.

All functions are pure and safe for concurrent use.
*/
package report
