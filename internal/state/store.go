package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultPath is where the state document lives unless the caller overrides
// it. The agent's own CLI invocations read-modify-write this same file, so
// the path must be stable across processes in the same working directory.
const DefaultPath = ".ralph/state.json"

// Load reads and parses the state document at path. Any failure to read or
// parse yields (nil, false): a missing file, a permission error, and a
// corrupt document are all indistinguishable "absent" to the caller, which
// decides whether absence is fatal. A document missing its items collection
// is given an empty one rather than rejected.
func Load(path string) (*Document, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}

	// Compatibility default for documents written by older versions
	if doc.Items == nil {
		doc.Items = []*WorkItem{}
	}

	return &doc, true
}

// Save serializes the complete document and atomically replaces the file at
// path. The write-temp-then-rename dance keeps a concurrently reading agent
// process from ever observing a partially written document.
func Save(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state document: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// CreateInitial produces a fresh document with no items and a running status.
func CreateInitial() *Document {
	return &Document{
		Version:   CurrentVersion,
		Items:     []*WorkItem{},
		Status:    RunRunning,
		StartedAt: time.Now(),
	}
}
