package agent

import "strings"

// ContainsMarker reports whether the accumulated agent output contains the
// completion marker. Case-sensitive substring containment over the whole
// buffer: a marker split across streamed chunks is still found, since
// detection runs on the accumulated output rather than individual lines.
//
// The prompt asks the agent to wrap the marker in a delimiter, but detection
// deliberately checks the bare substring for compatibility with agents that
// don't. A stray mention of the marker word in ordinary conversation can
// therefore falsely signal completion; known limitation, kept as-is.
func ContainsMarker(output, marker string) bool {
	return strings.Contains(output, marker)
}
