package specstore

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderedMarkdown re-derives the three markdown companions from spec
// on demand, for callers (the HTTP shim's GET /specs/:slug) that want
// the rendered form without reading the on-disk files.
func RenderedMarkdown(spec *Specification) (requirements, design, tasks string) {
	return renderRequirements(spec), renderDesign(spec), renderTasks(spec)
}

// renderRequirements regenerates requirements.md in full from the
// model; it is never hand-edited round-tripped per the store's
// rendering contract.
func renderRequirements(spec *Specification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Requirements: %s\n\n", spec.Name)

	if len(spec.Stories) == 0 {
		b.WriteString("No user stories yet.\n")
		return b.String()
	}

	for _, story := range spec.Stories {
		fmt.Fprintf(&b, "## %s\n\n", story.ID)
		fmt.Fprintf(&b, "%s\n\n", story.Sentence())
		if len(story.Requirements) > 0 {
			b.WriteString("### Acceptance Criteria\n\n")
			for _, req := range story.Requirements {
				fmt.Fprintf(&b, "- **%s**: %s\n", req.ID, req.Sentence())
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderDesign regenerates design.md in full from the model.
func renderDesign(spec *Specification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Design: %s\n\n", spec.Name)

	b.WriteString("## Architecture\n\n")
	if spec.Design.Architecture != "" {
		fmt.Fprintf(&b, "%s\n\n", spec.Design.Architecture)
	} else {
		b.WriteString("Not yet documented.\n\n")
	}

	if len(spec.Design.Components) > 0 {
		b.WriteString("## Components\n\n")
		for _, c := range spec.Design.Components {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Data Model\n\n")
	if spec.Design.DataModel != "" {
		fmt.Fprintf(&b, "%s\n\n", spec.Design.DataModel)
	} else {
		b.WriteString("Not yet documented.\n\n")
	}

	if len(spec.Design.SequenceDiagrams) > 0 {
		b.WriteString("## Sequence Diagrams\n\n")
		for _, d := range spec.Design.SequenceDiagrams {
			fmt.Fprintf(&b, "```\n%s\n```\n\n", d)
		}
	}
	return b.String()
}

// renderTasks regenerates tasks.md: a progress summary followed by a
// nested checkbox list. Indentation depth equals the dot count in a
// task's number times 2 spaces, per the store's indentation contract.
func renderTasks(spec *Specification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Tasks: %s\n\n", spec.Name)

	s := stats(spec.Tasks)
	fmt.Fprintf(&b, "Progress: %d/%d complete (%s%%) — %d in progress, %d pending\n\n",
		s.Completed, s.Total, strconv.FormatFloat(s.Percentage(), 'f', 0, 64), s.InProgress, s.Pending)

	if s.Total == 0 {
		b.WriteString("No tasks yet.\n")
		return b.String()
	}

	var walk func([]*Task)
	walk = func(tasks []*Task) {
		for _, t := range tasks {
			depth := strings.Count(t.Number, ".")
			indent := strings.Repeat("  ", depth)
			mark := " "
			switch t.Status {
			case TaskCompleted:
				mark = "x"
			case TaskInProgress:
				mark = "~"
			}
			fmt.Fprintf(&b, "%s- [%s] %s. %s\n", indent, mark, t.Number, t.Title)
			walk(t.Subtasks)
		}
	}
	walk(spec.Tasks)
	return b.String()
}
