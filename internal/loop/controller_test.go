package loop

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/ralph/internal/agent"
	"github.com/steveyegge/ralph/internal/history"
	"github.com/steveyegge/ralph/internal/state"
)

// testPaths creates a fresh state document with the given item descriptions
// and returns the state and history paths.
func testPaths(t *testing.T, descriptions ...string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	historyPath := filepath.Join(dir, "history.jsonl")

	doc := state.CreateInitial()
	for _, d := range descriptions {
		doc.AddItem(d, "", "")
	}
	require.NoError(t, state.Save(doc, statePath))
	return statePath, historyPath
}

func newTestController(t *testing.T, cfg Config, interrupt *Interrupter) *Controller {
	t.Helper()
	if cfg.Out == nil {
		cfg.Out = &bytes.Buffer{}
	}
	c, err := New(cfg, interrupt)
	require.NoError(t, err)
	return c
}

// markerRunner fakes an agent that emits the completion marker immediately.
func markerRunner(marker string) Runner {
	return func(ctx context.Context, opts agent.Options) *agent.Result {
		return &agent.Result{Output: "all items finished\n=== " + marker + " ===\n", ExitCode: 0}
	}
}

// busyRunner fakes an agent that works forever without finishing.
func busyRunner() Runner {
	return func(ctx context.Context, opts agent.Options) *agent.Result {
		return &agent.Result{Output: "still chewing on it\n", ExitCode: 0}
	}
}

// TestMarkerOnFirstRun is end-to-end scenario A: one ready item, marker on
// the first run.
func TestMarkerOnFirstRun(t *testing.T) {
	statePath, historyPath := testPaths(t, "build the thing")

	c := newTestController(t, Config{
		StatePath:   statePath,
		HistoryPath: historyPath,
		Runner:      markerRunner("RALPH_DONE"),
	}, nil)

	outcome, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)

	doc, ok := state.Load(statePath)
	require.True(t, ok)
	assert.Equal(t, state.RunCompleted, doc.Status)

	entries, err := history.Read(historyPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].MarkerFound)
	assert.Equal(t, 1, entries[0].Iteration)
}

// TestIterationCap is end-to-end scenario B: the agent never emits the
// marker, so the loop runs exactly MaxIterations times, never more.
func TestIterationCap(t *testing.T) {
	statePath, historyPath := testPaths(t, "unfinishable work")

	calls := 0
	c := newTestController(t, Config{
		StatePath:     statePath,
		HistoryPath:   historyPath,
		MaxIterations: 3,
		Runner: func(ctx context.Context, opts agent.Options) *agent.Result {
			calls++
			return &agent.Result{Output: "no luck\n"}
		},
	}, nil)

	outcome, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeMaxIterations, outcome)
	assert.Equal(t, 3, calls)

	entries, err := history.Read(historyPath)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Iteration)
		assert.False(t, e.MarkerFound)
	}

	doc, ok := state.Load(statePath)
	require.True(t, ok)
	assert.Equal(t, state.RunMaxIterations, doc.Status)
	assert.Equal(t, state.ItemReady, doc.Items[0].Status)
}

// TestReconciliation simulates the agent marking the item done on disk
// mid-iteration: the controller's post-iteration state must reflect disk,
// not its pre-iteration snapshot.
func TestReconciliation(t *testing.T) {
	statePath, historyPath := testPaths(t, "item one", "item two")

	c := newTestController(t, Config{
		StatePath:     statePath,
		HistoryPath:   historyPath,
		MaxIterations: 2,
		Runner: func(ctx context.Context, opts agent.Options) *agent.Result {
			// External writer: mark everything done and record a session.
			doc, ok := state.Load(statePath)
			require.True(t, ok)
			for _, item := range doc.Items {
				item.MarkDone(time.Now())
			}
			doc.SessionID = "sess-external"
			require.NoError(t, state.Save(doc, statePath))
			return &agent.Result{Output: "marked everything done\n"}
		},
	}, nil)

	outcome, err := c.Run(context.Background())
	require.NoError(t, err)

	// No marker was emitted, but the second selecting pass found nothing
	// pending, which is completion.
	assert.Equal(t, OutcomeCompleted, outcome)

	entries, err := history.Read(historyPath)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	doc, ok := state.Load(statePath)
	require.True(t, ok)
	assert.Equal(t, state.RunCompleted, doc.Status)
	assert.Equal(t, "sess-external", doc.SessionID)
	for _, item := range doc.Items {
		assert.Equal(t, state.ItemDone, item.Status)
	}
}

func TestSessionAdoption(t *testing.T) {
	statePath, historyPath := testPaths(t, "work")

	c := newTestController(t, Config{
		StatePath:     statePath,
		HistoryPath:   historyPath,
		MaxIterations: 1,
		Runner: func(ctx context.Context, opts agent.Options) *agent.Result {
			return &agent.Result{Output: "x\n", SessionID: "sess-new"}
		},
	}, nil)

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	doc, ok := state.Load(statePath)
	require.True(t, ok)
	assert.Equal(t, "sess-new", doc.SessionID)
	assert.Equal(t, "sess-new", doc.Items[0].AgentSessionID)
}

func TestAlreadyDoneNeverEntersLoop(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	historyPath := filepath.Join(dir, "history.jsonl")

	doc := state.CreateInitial()
	doc.AddItem("done already", "", "").MarkDone(time.Now())
	require.NoError(t, state.Save(doc, statePath))

	c := newTestController(t, Config{
		StatePath:   statePath,
		HistoryPath: historyPath,
		Runner: func(ctx context.Context, opts agent.Options) *agent.Result {
			t.Fatal("agent must not run for a fully done document")
			return nil
		},
	}, nil)

	outcome, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)

	entries, err := history.Read(historyPath)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPreflightFailures(t *testing.T) {
	t.Run("missing state document", func(t *testing.T) {
		c := newTestController(t, Config{
			StatePath: filepath.Join(t.TempDir(), "absent.json"),
			Runner:    busyRunner(),
		}, nil)
		_, err := c.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ralph init")
	})

	t.Run("focus id not found", func(t *testing.T) {
		statePath, historyPath := testPaths(t, "only item")
		c := newTestController(t, Config{
			StatePath:   statePath,
			HistoryPath: historyPath,
			FocusID:     42,
			Runner:      busyRunner(),
		}, nil)
		_, err := c.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("focus id already done", func(t *testing.T) {
		dir := t.TempDir()
		statePath := filepath.Join(dir, "state.json")
		doc := state.CreateInitial()
		doc.AddItem("finished", "", "").MarkDone(time.Now())
		require.NoError(t, state.Save(doc, statePath))

		c := newTestController(t, Config{
			StatePath: statePath,
			FocusID:   1,
			Runner:    busyRunner(),
		}, nil)
		_, err := c.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already done")
	})
}

// Content that cannot be read skips the agent but still counts as an
// iteration attempt, uniformly with every other per-iteration failure.
func TestUnreadableContentCountsAsIteration(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	historyPath := filepath.Join(dir, "history.jsonl")

	doc := state.CreateInitial()
	doc.AddItem("", filepath.Join(dir, "missing.md"), "")
	require.NoError(t, state.Save(doc, statePath))

	calls := 0
	c := newTestController(t, Config{
		StatePath:     statePath,
		HistoryPath:   historyPath,
		MaxIterations: 2,
		Runner: func(ctx context.Context, opts agent.Options) *agent.Result {
			calls++
			return &agent.Result{Output: "x\n"}
		},
	}, nil)

	outcome, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeMaxIterations, outcome)
	assert.Equal(t, 0, calls, "agent must not be invoked for unreadable content")

	entries, err := history.Read(historyPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].OutputSummary, "skipped")
}

func TestAgentFailureContinuesLoop(t *testing.T) {
	statePath, historyPath := testPaths(t, "flaky work")

	calls := 0
	c := newTestController(t, Config{
		StatePath:     statePath,
		HistoryPath:   historyPath,
		MaxIterations: 3,
		Runner: func(ctx context.Context, opts agent.Options) *agent.Result {
			calls++
			if calls < 3 {
				return &agent.Result{Output: "\n", ExitCode: 1}
			}
			return &agent.Result{Output: "=== RALPH_DONE ===\n"}
		},
	}, nil)

	outcome, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
	assert.Equal(t, 3, calls)

	entries, err := history.Read(historyPath)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestGracefulInterrupt(t *testing.T) {
	statePath, historyPath := testPaths(t, "long haul")
	interrupt := NewInterrupter(statePath)

	c := newTestController(t, Config{
		StatePath:     statePath,
		HistoryPath:   historyPath,
		MaxIterations: 10,
		Runner: func(ctx context.Context, opts agent.Options) *agent.Result {
			// Signal arrives mid-iteration; the iteration finishes naturally.
			interrupt.Signal()
			return &agent.Result{Output: "interrupted mid-flight\n"}
		},
	}, interrupt)

	outcome, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeInterrupted, outcome)

	// Exactly one entry: the in-flight iteration drained, no new one began.
	entries, err := history.Read(historyPath)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	doc, ok := state.Load(statePath)
	require.True(t, ok)
	assert.Equal(t, state.RunError, doc.Status)
}

func TestDryRunNeverInvokesAgent(t *testing.T) {
	statePath, historyPath := testPaths(t, "preview me")

	var out bytes.Buffer
	c := newTestController(t, Config{
		StatePath:   statePath,
		HistoryPath: historyPath,
		DryRun:      true,
		Out:         &out,
		Runner: func(ctx context.Context, opts agent.Options) *agent.Result {
			t.Fatal("dry run must not invoke the agent")
			return nil
		},
	}, nil)

	outcome, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDryRun, outcome)

	rendered := out.String()
	assert.Contains(t, rendered, "Dry run")
	assert.Contains(t, rendered, "preview me")
	assert.Contains(t, rendered, "WORK ITEM 1")

	entries, err := history.Read(historyPath)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run must not record history")
}

func TestResumeSessionPassedToAgent(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	historyPath := filepath.Join(dir, "history.jsonl")

	doc := state.CreateInitial()
	item := doc.AddItem("continue me", "", "")
	item.AgentSessionID = "sess-prior"
	require.NoError(t, state.Save(doc, statePath))

	var seen string
	c := newTestController(t, Config{
		StatePath:     statePath,
		HistoryPath:   historyPath,
		MaxIterations: 1,
		Runner: func(ctx context.Context, opts agent.Options) *agent.Result {
			seen = opts.ResumeSessionID
			return &agent.Result{Output: "=== RALPH_DONE ===\n"}
		},
	}, nil)

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-prior", seen)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "completed", OutcomeCompleted.String())
	assert.Equal(t, "max_iterations_reached", OutcomeMaxIterations.String())
	assert.Equal(t, "interrupted", OutcomeInterrupted.String())
	assert.True(t, strings.HasPrefix(Outcome(99).String(), "unknown"))
}
