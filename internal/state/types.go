package state

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ItemStatus represents the lifecycle state of a single work item.
type ItemStatus string

const (
	// ItemReady indicates the item is waiting to be worked
	ItemReady ItemStatus = "ready"
	// ItemDone indicates the item was completed
	ItemDone ItemStatus = "done"
	// ItemBlocked indicates the item cannot proceed (set externally)
	ItemBlocked ItemStatus = "blocked"
	// ItemCancelled indicates the item was abandoned (set externally)
	ItemCancelled ItemStatus = "cancelled"
)

// IsValid checks if the status value is valid
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemReady, ItemDone, ItemBlocked, ItemCancelled:
		return true
	}
	return false
}

// RunStatus represents the run-level status of a state document.
type RunStatus string

const (
	// RunRunning indicates an active (or resumable) run
	RunRunning RunStatus = "running"
	// RunCompleted indicates the loop observed the completion marker
	RunCompleted RunStatus = "completed"
	// RunMaxIterations indicates the iteration cap was hit without completion
	RunMaxIterations RunStatus = "max_iterations_reached"
	// RunError indicates the run was interrupted or failed
	RunError RunStatus = "error"
)

// WorkItem is a single schedulable unit of work tracked in the state document.
// The work content is either inline (Description) or a pointer to an external
// file (SourceFile); exactly one of the two is expected to be set.
type WorkItem struct {
	ID             int        `json:"id"`
	Description    string     `json:"description,omitempty"`
	SourceFile     string     `json:"sourceFilePath,omitempty"`
	Status         ItemStatus `json:"status"`
	AddedAt        time.Time  `json:"addedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Label          string     `json:"label,omitempty"`
	AgentSessionID string     `json:"agentSessionId,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Content resolves the work content of the item. Inline descriptions are
// returned as-is; file-backed items are read from disk on every call so the
// loop always sees the latest revision of the source file.
func (w *WorkItem) Content() (string, error) {
	if w.Description != "" {
		return w.Description, nil
	}
	if w.SourceFile == "" {
		return "", fmt.Errorf("work item %d has neither description nor source file", w.ID)
	}
	data, err := os.ReadFile(w.SourceFile)
	if err != nil {
		return "", fmt.Errorf("failed to read work item %d content from %s: %w", w.ID, w.SourceFile, err)
	}
	return string(data), nil
}

// Summary returns a short single-line description for listings.
func (w *WorkItem) Summary() string {
	text := w.Description
	if text == "" {
		text = w.SourceFile
	}
	text = strings.ReplaceAll(text, "\n", " ")
	const maxLen = 72
	if len(text) > maxLen {
		return text[:maxLen] + "..."
	}
	return text
}

// MarkDone transitions the item to done, stamping CompletedAt exactly once.
func (w *WorkItem) MarkDone(now time.Time) {
	if w.Status == ItemDone {
		return
	}
	w.Status = ItemDone
	w.CompletedAt = &now
}

// CurrentVersion is the schema tag written to new state documents.
const CurrentVersion = 1

// Document is the root persisted object: the full work-item registry plus
// run-level bookkeeping. It is owned by the Store; the iteration controller
// holds a working copy that it reconciles against disk after every agent run.
type Document struct {
	Version   int         `json:"version"`
	Items     []*WorkItem `json:"items"`
	Status    RunStatus   `json:"status"`
	StartedAt time.Time   `json:"startedAt"`
	SessionID string      `json:"sessionId,omitempty"`

	// LastID is the high-water mark of every id ever assigned in this
	// document's lifetime. Removing an item must not allow its id to be
	// reused, so max(existing ids) alone is not enough.
	LastID int `json:"lastId,omitempty"`
}

// Find returns the item with the given id, or nil.
func (d *Document) Find(id int) *WorkItem {
	for _, item := range d.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// NextPending returns the first item in document order whose status is not
// done. Blocked and cancelled items are still returned: they are terminal for
// the external actor that set them, but the loop surfaces them rather than
// silently skipping work.
func (d *Document) NextPending() *WorkItem {
	for _, item := range d.Items {
		if item.Status != ItemDone {
			return item
		}
	}
	return nil
}

// AllDone reports whether every item in the document is done.
func (d *Document) AllDone() bool {
	return d.NextPending() == nil
}

// AddItem assigns the next monotonic id, appends the new item to the
// document, and returns it. Ids are strictly increasing across the whole
// document lifetime, including across removals.
func (d *Document) AddItem(description, sourceFile, label string) *WorkItem {
	item := &WorkItem{
		ID:          d.nextID(),
		Description: description,
		SourceFile:  sourceFile,
		Status:      ItemReady,
		AddedAt:     time.Now(),
		Label:       label,
	}
	d.Items = append(d.Items, item)
	d.LastID = item.ID
	return item
}

// Remove deletes the item with the given id, preserving document order.
// Returns false if no such item exists. The id is never reassigned.
func (d *Document) Remove(id int) bool {
	for i, item := range d.Items {
		if item.ID == id {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return true
		}
	}
	return false
}

// nextID computes max(LastID, max existing id) + 1. Documents written before
// LastID existed have LastID zero, so the max over live items keeps ids
// unique for them too.
func (d *Document) nextID() int {
	next := d.LastID
	for _, item := range d.Items {
		if item.ID > next {
			next = item.ID
		}
	}
	return next + 1
}
