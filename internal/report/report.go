// Package report renders run history as a standalone HTML page. Each
// iteration becomes a tile sized by wall-clock duration and shaded by
// how much of the agent's context window it consumed.
package report

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/steveyegge/ralph/internal/history"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>ralph run report</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2em; background: #fafafa; }
h1 { font-size: 1.3em; }
.summary { color: #555; margin-bottom: 1.5em; }
.map { display: flex; flex-wrap: wrap; gap: 4px; }
.tile { color: #fff; border-radius: 4px; padding: 8px; box-sizing: border-box;
        min-width: 60px; overflow: hidden; }
.tile .label { font-weight: 600; font-size: 0.85em; }
.tile .meta { font-size: 0.75em; opacity: 0.9; }
.tile .preview { font-size: 0.7em; opacity: 0.8; white-space: nowrap;
                 overflow: hidden; text-overflow: ellipsis; }
.marker { outline: 2px solid #2e7d32; }
</style>
</head>
<body>
<h1>ralph run report</h1>
<div class="summary">{{.IterationCount}} iterations across {{.RunCount}} runs, {{.TotalHuman}} total</div>
<div class="map">
{{range .Tiles}}<div class="tile{{if .MarkerFound}} marker{{end}}" style="flex-grow: {{.Weight}}; background: {{.Color}};" title="{{.Title}}">
<div class="label">#{{.Iteration}}</div>
<div class="meta">{{.DurationHuman}}{{if .ContextPct}} &middot; {{.ContextPct}}% ctx{{end}}</div>
<div class="preview">{{.Preview}}</div>
</div>
{{end}}</div>
</body>
</html>
`

var page = template.Must(template.New("report").Parse(pageTemplate))

type tile struct {
	Iteration     int
	Weight        int
	Color         string
	Title         string
	DurationHuman string
	ContextPct    int
	Preview       string
	MarkerFound   bool
}

type pageData struct {
	IterationCount int
	RunCount       int
	TotalHuman     string
	Tiles          []tile
}

// Generate writes the HTML report for the given history entries. An
// empty history still produces a valid page.
func Generate(w io.Writer, entries []history.Entry) error {
	data := pageData{IterationCount: len(entries)}

	runs := make(map[string]bool)
	var totalMs int64
	var maxMs int64 = 1
	for _, e := range entries {
		runs[e.RunID] = true
		totalMs += e.DurationMs
		if e.DurationMs > maxMs {
			maxMs = e.DurationMs
		}
	}
	data.RunCount = len(runs)
	data.TotalHuman = history.HumanDuration(time.Duration(totalMs) * time.Millisecond)

	sorted := make([]history.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.Before(sorted[j].StartedAt)
	})

	for _, e := range sorted {
		// flex-grow wants small integers; scale against the longest
		// iteration so the largest tile gets weight 100.
		weight := int(e.DurationMs * 100 / maxMs)
		if weight < 1 {
			weight = 1
		}
		data.Tiles = append(data.Tiles, tile{
			Iteration:     e.Iteration,
			Weight:        weight,
			Color:         shade(e.ContextUsedPercent),
			Title:         fmt.Sprintf("run %s iteration %d", e.RunID, e.Iteration),
			DurationHuman: e.DurationHuman,
			ContextPct:    e.ContextUsedPercent,
			Preview:       preview(e.OutputSummary),
			MarkerFound:   e.MarkerFound,
		})
	}

	return page.Execute(w, data)
}

// shade maps context usage to a blue that darkens as the window fills.
func shade(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	// Lightness runs from 65% (idle) down to 25% (window nearly full).
	lightness := 65 - pct*40/100
	return fmt.Sprintf("hsl(210, 60%%, %d%%)", lightness)
}

func preview(summary string) string {
	s := strings.TrimSpace(summary)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[i+1:])
	}
	const max = 80
	if len(s) > max {
		s = s[:max]
	}
	return s
}
