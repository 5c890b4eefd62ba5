package loop

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/steveyegge/ralph/internal/state"
)

// Interrupter models two-stage cancellation as a token shared between the
// signal handler and the iteration loop. The first signal requests a
// graceful drain: the in-flight iteration finishes naturally and the loop
// exits with a distinct outcome. The second signal is the caller's cue to
// terminate immediately.
type Interrupter struct {
	signals   atomic.Int32
	statePath string
}

// NewInterrupter creates a token bound to the state document at statePath.
func NewInterrupter(statePath string) *Interrupter {
	return &Interrupter{statePath: statePath}
}

// Signal records one interrupt and returns how many have been seen. On the
// first signal the on-disk document is stamped with an error status, so a
// run that never wakes up again still leaves honest state behind. The disk
// copy is modified directly rather than the controller's in-memory copy,
// which the loop goroutine owns.
func (i *Interrupter) Signal() int {
	n := int(i.signals.Add(1))
	if n == 1 {
		if doc, ok := state.Load(i.statePath); ok {
			doc.Status = state.RunError
			if err := state.Save(doc, i.statePath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to persist interrupted state: %v\n", err)
			}
		}
	}
	return n
}

// Requested reports whether a graceful interrupt has been requested.
func (i *Interrupter) Requested() bool {
	return i.signals.Load() > 0
}
