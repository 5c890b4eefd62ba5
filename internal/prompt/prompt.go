// Package prompt renders the instruction block handed to the coding agent.
// Building a prompt is a pure function of the work item and the loop
// configuration: same inputs, same bytes, so dry runs show exactly what the
// agent will receive.
package prompt

import (
	"fmt"
	"strings"
)

// DefaultMarker is the literal string the agent is told to emit once every
// work item is done.
const DefaultMarker = "RALPH_DONE"

// MinMarkerLength is the shortest marker callers should accept. Detection is
// plain substring containment, so very short markers would false-positive on
// ordinary output. Enforced by the CLI layer, not here.
const MinMarkerLength = 8

// Input carries everything the prompt depends on.
type Input struct {
	// Content is the resolved work item content (inline description or the
	// text of its source file).
	Content string
	// ItemID is the id the agent will pass to `ralph done`.
	ItemID int
	// Focused is true when the operator pinned this specific item; otherwise
	// the agent may exercise judgment over all ready items.
	Focused bool
	// Marker is the completion marker literal.
	Marker string
	// SkipCommit drops the commit step from the directive.
	SkipCommit bool
}

// Delimit wraps the marker in the delimiter form the agent is instructed to
// emit. The loop deliberately detects the bare marker substring for
// compatibility with older agents, so the delimiter narrows false positives
// only for agents that follow instructions exactly.
func Delimit(marker string) string {
	return "=== " + marker + " ==="
}

// Build renders the numbered instruction block for one iteration.
func Build(in Input) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# WORK ITEM %d\n\n", in.ItemID))
	b.WriteString(strings.TrimRight(in.Content, "\n"))
	b.WriteString("\n\n---\n\n# EXECUTION DIRECTIVE\n\n")
	b.WriteString("You are operating in autonomous mode. Do not ask for permission; proceed\n")
	b.WriteString("directly and only stop if technically blocked. Follow these steps in order:\n\n")

	step := 0
	next := func(format string, args ...interface{}) {
		step++
		b.WriteString(fmt.Sprintf("%d. ", step))
		b.WriteString(fmt.Sprintf(format, args...))
		b.WriteString("\n")
	}

	next("Read the work item above carefully. It is your task context for this iteration.")
	if in.Focused {
		next("Work ONLY on work item %d. Ignore every other item in the backlog.", in.ItemID)
	} else {
		next("Run `ralph list` to see the backlog. Work item %d is first in line, but use your own judgment: pick the ready item that unblocks the most progress and work it to completion.", in.ItemID)
	}
	next("Run the project's verification suite (type checks, linters, tests) and fix anything your change broke before moving on.")
	next("When an item is complete, mark it done: `ralph done <id>` (for the item above: `ralph done %d`).", in.ItemID)
	if !in.SkipCommit {
		next("Commit your work with a clear, descriptive commit message.")
	}

	b.WriteString("\nFinally: if and only if EVERY work item is done, emit the completion\n")
	b.WriteString("marker on its own line, wrapped exactly like this:\n\n")
	b.WriteString(Delimit(in.Marker))
	b.WriteString("\n\nIf any item remains unfinished, do not mention the marker at all.\n")

	return b.String()
}
