package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/ralph/internal/history"
)

func TestGenerateEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, nil))
	assert.Contains(t, buf.String(), "0 iterations across 0 runs")
}

func TestGenerateTiles(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	entries := []history.Entry{
		{
			RunID: "run-a", Iteration: 2, StartedAt: base.Add(time.Minute),
			DurationMs: 30000, DurationHuman: "30s",
			OutputSummary: "second\nlast line here", ContextUsedPercent: 80,
		},
		{
			RunID: "run-a", Iteration: 1, StartedAt: base,
			DurationMs: 60000, DurationHuman: "1m0s",
			OutputSummary: "first", MarkerFound: true, ContextUsedPercent: 20,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, entries))
	html := buf.String()

	assert.Contains(t, html, "2 iterations across 1 runs")
	assert.Contains(t, html, "1m30s total")
	// Longest iteration gets the full weight.
	assert.Contains(t, html, "flex-grow: 100")
	assert.Contains(t, html, "flex-grow: 50")
	// Entries render in start order despite input order.
	assert.Less(t, indexOf(html, "#1"), indexOf(html, "#2"))
	// Marker iteration is highlighted.
	assert.Contains(t, html, `class="tile marker"`)
	// Only the last line of the summary is previewed.
	assert.Contains(t, html, "last line here")
	assert.NotContains(t, html, "second\n")
}

func TestGenerateEscapesOutput(t *testing.T) {
	entries := []history.Entry{{
		Iteration: 1, DurationMs: 1000, DurationHuman: "1s",
		OutputSummary: `<script>alert("x")</script>`,
	}}

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, entries))
	assert.NotContains(t, buf.String(), "<script>alert")
}

func TestShadeBounds(t *testing.T) {
	assert.Equal(t, "hsl(210, 60%, 65%)", shade(0))
	assert.Equal(t, "hsl(210, 60%, 25%)", shade(100))
	assert.Equal(t, shade(0), shade(-5))
	assert.Equal(t, shade(100), shade(250))
}

func indexOf(s, sub string) int {
	return bytes.Index([]byte(s), []byte(sub))
}
