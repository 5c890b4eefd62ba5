// Package loop drives the autonomous iteration engine: select a work item,
// build a prompt, run the agent, reconcile state the agent may have mutated,
// record history, and decide whether to continue.
package loop

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/steveyegge/ralph/internal/agent"
	"github.com/steveyegge/ralph/internal/history"
	"github.com/steveyegge/ralph/internal/prompt"
	"github.com/steveyegge/ralph/internal/state"
)

// Outcome is the terminal result of a loop run.
type Outcome int

const (
	// OutcomeCompleted means the completion marker was observed, or no
	// pending work existed in the first place
	OutcomeCompleted Outcome = iota
	// OutcomeMaxIterations means the iteration cap was hit without completion
	OutcomeMaxIterations
	// OutcomeInterrupted means a graceful interrupt drained the loop
	OutcomeInterrupted
	// OutcomeDryRun means the preview path ran; no agent was invoked
	OutcomeDryRun
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeMaxIterations:
		return "max_iterations_reached"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeDryRun:
		return "dry_run"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// Runner invokes the coding agent for one iteration. Injectable so tests can
// substitute a fake agent.
type Runner func(ctx context.Context, opts agent.Options) *agent.Result

// Config holds controller configuration.
type Config struct {
	StatePath     string
	HistoryPath   string
	MaxIterations int
	// FocusID pins the loop to one explicit work item; 0 means document-order
	// selection.
	FocusID    int
	AutoCommit bool
	DryRun     bool
	Marker     string
	AgentBin   string
	AgentArgs  []string
	// LogSink optionally receives a mirror of all agent output.
	LogSink io.Writer
	// Out is where the controller writes its own progress lines; os.Stdout
	// when nil.
	Out io.Writer
	// Runner overrides the real agent invocation; nil means agent.Run, in
	// which case the agent binary must be discoverable on PATH.
	Runner Runner
}

// Controller executes the iteration state machine over a state document.
type Controller struct {
	cfg       Config
	interrupt *Interrupter
	runID     string
	out       io.Writer
	realAgent bool

	doc *state.Document
}

// New validates configuration and creates a controller. The interrupter may
// be nil when cancellation is not wired (tests, dry runs).
func New(cfg Config, interrupt *Interrupter) (*Controller, error) {
	if cfg.StatePath == "" {
		cfg.StatePath = state.DefaultPath
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = history.DefaultPath
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.Marker == "" {
		cfg.Marker = prompt.DefaultMarker
	}
	if cfg.AgentBin == "" {
		cfg.AgentBin = agent.DefaultBinary
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	c := &Controller{
		cfg:       cfg,
		interrupt: interrupt,
		runID:     uuid.New().String(),
		out:       out,
		realAgent: cfg.Runner == nil,
	}
	if c.realAgent {
		c.cfg.Runner = agent.Run
	}
	return c, nil
}

// Run executes the loop until a terminal outcome. Fatal configuration
// problems (missing state document, agent binary not on PATH, bad focus id)
// are reported as errors before any iteration runs; per-iteration failures
// are warnings that never abort the run.
func (c *Controller) Run(ctx context.Context) (Outcome, error) {
	if err := c.preflight(); err != nil {
		return 0, err
	}

	if c.cfg.DryRun {
		return c.dryRun()
	}

	for iteration := 1; iteration <= c.cfg.MaxIterations; iteration++ {
		// selecting: an already-fully-done document must never enter the
		// loop body, so this check runs at the top of every iteration too.
		item, done := c.selectItem()
		if done {
			c.terminate(state.RunCompleted)
			return OutcomeCompleted, nil
		}

		fmt.Fprintf(c.out, "\n=== Iteration %d/%d: work item %d ===\n", iteration, c.cfg.MaxIterations, item.ID)

		found := c.runIteration(ctx, iteration, item)
		if found {
			c.terminate(state.RunCompleted)
			return OutcomeCompleted, nil
		}

		if c.interrupt != nil && c.interrupt.Requested() {
			// The signal handler stamped the disk copy already, but the
			// recording step may have overwritten it since; stamp again from
			// the reconciled working copy.
			c.terminate(state.RunError)
			return OutcomeInterrupted, nil
		}
	}

	c.terminate(state.RunMaxIterations)
	return OutcomeMaxIterations, nil
}

// preflight checks the fatal preconditions once, before the loop starts.
func (c *Controller) preflight() error {
	doc, ok := state.Load(c.cfg.StatePath)
	if !ok {
		return fmt.Errorf("no state document at %s (create one with `ralph init`, then `ralph add` some work)", c.cfg.StatePath)
	}
	c.doc = doc

	if c.cfg.FocusID != 0 {
		item := doc.Find(c.cfg.FocusID)
		if item == nil {
			return fmt.Errorf("work item %d not found (see `ralph list`)", c.cfg.FocusID)
		}
		if item.Status == state.ItemDone {
			return fmt.Errorf("work item %d is already done", c.cfg.FocusID)
		}
	}

	if c.realAgent {
		if _, err := exec.LookPath(c.cfg.AgentBin); err != nil {
			return fmt.Errorf("agent binary %q not found on PATH (install it or set RALPH_AGENT_BIN)", c.cfg.AgentBin)
		}
	}
	return nil
}

// selectItem resolves the current focus. The bool result is true when no
// pending work remains.
func (c *Controller) selectItem() (*state.WorkItem, bool) {
	if c.cfg.FocusID != 0 {
		item := c.doc.Find(c.cfg.FocusID)
		if item == nil || item.Status == state.ItemDone {
			// The focused item was finished (or removed) out from under us,
			// typically by the agent itself. That is completion.
			return nil, true
		}
		return item, false
	}

	item := c.doc.NextPending()
	return item, item == nil
}

// runIteration executes one full pass of the state machine body and reports
// whether the completion marker was observed. Every attempt advances the
// iteration counter and produces exactly one history entry, whatever goes
// wrong inside it.
func (c *Controller) runIteration(ctx context.Context, iteration int, item *state.WorkItem) bool {
	startedAt := time.Now()

	// prompting
	content, err := item.Content()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: skipping agent run: %v\n", err)
		c.record(iteration, startedAt, time.Now(), "skipped: "+err.Error(), false, 0)
		return false
	}

	built := prompt.Build(prompt.Input{
		Content:    content,
		ItemID:     item.ID,
		Focused:    c.cfg.FocusID != 0,
		Marker:     c.cfg.Marker,
		SkipCommit: !c.cfg.AutoCommit,
	})

	// running-agent: the only suspension point in the loop
	res := c.cfg.Runner(ctx, agent.Options{
		Binary:          c.cfg.AgentBin,
		Prompt:          built,
		ExtraArgs:       c.cfg.AgentArgs,
		ResumeSessionID: item.AgentSessionID,
		LogSink:         c.cfg.LogSink,
		Stdout:          c.out,
	})
	completedAt := time.Now()

	if res.ExitCode != 0 {
		fmt.Fprintf(os.Stderr, "Warning: agent exited with code %d; continuing\n", res.ExitCode)
	}

	// reconciling: the spawned agent is expected to have rewritten the state
	// document underneath us, so the in-memory copy always defers to disk.
	c.reconcile(item.ID, res.SessionID)

	// recording + checking-completion
	found := agent.ContainsMarker(res.Output, c.cfg.Marker)
	c.record(iteration, startedAt, completedAt, history.Summarize(res.Output), found, res.ContextUsedPercent)

	return found
}

// reconcile re-reads the document from disk and merges it into the working
// copy: the freshly loaded items replace ours wholesale, and any session
// handle the agent issued is adopted on both the document and the item it
// belongs to.
func (c *Controller) reconcile(itemID int, sessionID string) {
	if fresh, ok := state.Load(c.cfg.StatePath); ok {
		c.doc.Items = fresh.Items
		if fresh.SessionID != "" {
			c.doc.SessionID = fresh.SessionID
		}
	}

	if sessionID != "" {
		c.doc.SessionID = sessionID
		if item := c.doc.Find(itemID); item != nil {
			item.AgentSessionID = sessionID
		}
	}
}

// record appends a history entry and persists the reconciled document.
// Failures here are warnings: losing one history line must not kill a
// long-running autonomous session.
func (c *Controller) record(iteration int, startedAt, completedAt time.Time, summary string, markerFound bool, contextPct int) {
	duration := completedAt.Sub(startedAt)
	entry := &history.Entry{
		RunID:              c.runID,
		Iteration:          iteration,
		StartedAt:          startedAt,
		CompletedAt:        completedAt,
		DurationMs:         duration.Milliseconds(),
		DurationHuman:      history.HumanDuration(duration),
		OutputSummary:      summary,
		MarkerFound:        markerFound,
		ContextUsedPercent: contextPct,
	}
	if err := history.Append(entry, c.cfg.HistoryPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to append history entry: %v\n", err)
	}

	if err := state.Save(c.doc, c.cfg.StatePath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to persist state document: %v\n", err)
	}
}

// terminate stamps and persists the terminal run status.
func (c *Controller) terminate(status state.RunStatus) {
	c.doc.Status = status
	if err := state.Save(c.doc, c.cfg.StatePath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to persist final state: %v\n", err)
	}
}

// dryRun performs selecting and prompting only, printing the resolved
// configuration and the rendered prompt without ever invoking the agent.
func (c *Controller) dryRun() (Outcome, error) {
	item, done := c.selectItem()
	if done {
		fmt.Fprintln(c.out, "Nothing to do: every work item is already done.")
		return OutcomeDryRun, nil
	}

	content, err := item.Content()
	if err != nil {
		return 0, err
	}
	built := prompt.Build(prompt.Input{
		Content:    content,
		ItemID:     item.ID,
		Focused:    c.cfg.FocusID != 0,
		Marker:     c.cfg.Marker,
		SkipCommit: !c.cfg.AutoCommit,
	})

	fmt.Fprintf(c.out, "Dry run: no agent will be invoked.\n\n")
	fmt.Fprintf(c.out, "  state file:     %s\n", c.cfg.StatePath)
	fmt.Fprintf(c.out, "  history file:   %s\n", c.cfg.HistoryPath)
	fmt.Fprintf(c.out, "  agent:          %s %s\n", c.cfg.AgentBin, strings.Join(c.cfg.AgentArgs, " "))
	fmt.Fprintf(c.out, "  max iterations: %d\n", c.cfg.MaxIterations)
	fmt.Fprintf(c.out, "  marker:         %s\n", c.cfg.Marker)
	fmt.Fprintf(c.out, "  auto-commit:    %v\n", c.cfg.AutoCommit)
	fmt.Fprintf(c.out, "  selected item:  %d (%s)\n\n", item.ID, item.Summary())
	fmt.Fprintf(c.out, "--- prompt ---\n%s\n", built)

	return OutcomeDryRun, nil
}
