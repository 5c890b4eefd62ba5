// Package history maintains the append-only record of loop iterations.
// One JSON entry per line; the file is never truncated or rewritten by this
// process, only appended to, so prior runs remain inspectable forever.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultPath is where iteration history is appended unless overridden.
const DefaultPath = ".ralph/history.jsonl"

// Entry records the outcome of a single loop iteration. Entries are written
// once and never mutated.
type Entry struct {
	RunID              string    `json:"runId,omitempty"`
	Iteration          int       `json:"iteration"`
	StartedAt          time.Time `json:"startedAt"`
	CompletedAt        time.Time `json:"completedAt"`
	DurationMs         int64     `json:"durationMs"`
	DurationHuman      string    `json:"durationHuman"`
	OutputSummary      string    `json:"outputSummary"`
	MarkerFound        bool      `json:"markerFound"`
	ContextUsedPercent int       `json:"contextUsedPercent,omitempty"`
}

// maxSummaryLen bounds the tail of agent output stored per entry.
const maxSummaryLen = 1000

// Summarize produces the bounded-length tail of agent output stored on an
// entry. The tail is kept rather than the head because completion markers and
// final status reports land at the end of a run.
func Summarize(output string) string {
	if len(output) <= maxSummaryLen {
		return output
	}
	return output[len(output)-maxSummaryLen:]
}

// Append writes one entry to the log at path, creating the file and parent
// directory as needed.
func Append(entry *Entry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize history entry: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// Read loads every entry from the log at path, in append order. A missing
// file yields an empty slice; malformed lines are skipped rather than
// aborting the read, since the log may interleave entries from old versions.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history log: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// HumanDuration renders a duration the way the history log stores it:
// "4m32s" style, rounded to the second for anything over a second.
func HumanDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
