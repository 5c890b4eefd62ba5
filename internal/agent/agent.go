// Package agent spawns the external coding agent as a subprocess and turns
// its streamed structured output into an IterationResult the loop can act on.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultBinary is the agent executable looked up on PATH.
const DefaultBinary = "claude"

// contextWindowTokens is the fixed context window used to compute
// ContextUsedPercent. A single default suffices; per-model windows are not
// tracked.
const contextWindowTokens = 200000

// Options configures one agent invocation.
type Options struct {
	// Binary is the agent executable; DefaultBinary when empty.
	Binary string
	// Prompt is the built instruction block, delivered out-of-band via
	// --append-system-prompt rather than as the primary turn.
	Prompt string
	// ExtraArgs are caller-supplied arguments inserted after the baseline set.
	ExtraArgs []string
	// ResumeSessionID requests conversational continuity with a prior run.
	ResumeSessionID string
	// LogSink optionally receives a mirror of everything shown to the user.
	LogSink io.Writer
	// Stdout is the live display writer; os.Stdout when nil. Injectable so
	// tests can capture the display stream.
	Stdout io.Writer
}

// Result is the outcome of one agent invocation.
type Result struct {
	// Output is the accumulated agent text, always newline-terminated.
	Output string
	// ExitCode is the subprocess exit code; 1 when the process could not be
	// spawned at all.
	ExitCode int
	// ContextUsedPercent is the last-seen token usage as a percentage of the
	// context window, 0 if the agent reported no usage.
	ContextUsedPercent int
	// SessionID is the resumption handle the agent issued, if any.
	SessionID string
}

// buildArgs assembles the full argv: fixed baseline flags enabling
// non-interactive streamed structured output, then caller extras, then the
// prompt as an out-of-band system instruction with a literal continuation
// token as the primary turn.
func buildArgs(opts Options) []string {
	args := []string{
		"--print",
		"--verbose",
		"--output-format", "stream-json",
		"--dangerously-skip-permissions",
	}
	args = append(args, opts.ExtraArgs...)
	if opts.ResumeSessionID != "" {
		args = append(args, "--resume", opts.ResumeSessionID)
	}
	args = append(args, "--append-system-prompt", opts.Prompt, "continue")
	return args
}

// Run invokes the agent and blocks until it exits. Spawn failures (binary
// missing, permission denied) are not errors: they come back as a Result
// with exit code 1 so the loop treats them as a failed iteration rather
// than a fatal condition.
func Run(ctx context.Context, opts Options) *Result {
	binary := opts.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	display := opts.Stdout
	if display == nil {
		display = os.Stdout
	}

	cmd := exec.CommandContext(ctx, binary, buildArgs(opts)...)
	cmd.Stdin = os.Stdin

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create stdout pipe: %v\n", err)
		return &Result{Output: "\n", ExitCode: 1}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create stderr pipe: %v\n", err)
		return &Result{Output: "\n", ExitCode: 1}
	}

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to start agent %q: %v\n", binary, err)
		return &Result{Output: "\n", ExitCode: 1}
	}

	stream := &outputStream{display: display, sink: opts.LogSink}

	var g errgroup.Group
	g.Go(func() error {
		return stream.consumeStdout(stdout)
	})
	g.Go(func() error {
		// stderr is mirrored for the operator but never parsed
		return stream.consumeStderr(stderr)
	})
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error reading agent output: %v\n", err)
	}

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	}

	return stream.result(exitCode)
}

// outputStream accumulates agent text and tracks the most recent usage and
// session metadata. Every fragment is written to the live display, mirrored
// to the log sink, and appended to the buffer under one lock, in that order,
// so the three views never diverge.
type outputStream struct {
	display io.Writer
	sink    io.Writer

	mu        sync.Mutex
	buf       strings.Builder
	usage     *Usage
	sessionID string
}

// emit performs the three side effects for one text fragment atomically.
func (s *outputStream) emit(fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.display, fragment)
	if s.sink != nil {
		io.WriteString(s.sink, fragment)
	}
	s.buf.WriteString(fragment)
}

// observe records usage and session metadata from a classified event.
func (s *outputStream) observe(ev event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.usage != nil {
		s.usage = ev.usage
	}
	if ev.sessionID != "" {
		s.sessionID = ev.sessionID
	}
}

// consumeStdout reads the stdout pipe chunk by chunk, splitting on newline
// boundaries. A trailing partial line is retained by the buffered reader and
// parsed only once terminated, or at stream end.
func (s *outputStream) consumeStdout(r io.Reader) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			s.handleLine(line)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// handleLine classifies one complete line and applies its effects.
func (s *outputStream) handleLine(line string) {
	ev := classifyLine(line)
	s.observe(ev)

	switch ev.kind {
	case eventTextDelta:
		s.emit(ev.text)
	case eventBlockStop:
		s.emit("\n")
	case eventAssistant:
		if ev.text != "" {
			s.emit(ev.text + "\n")
		}
	case eventResult:
		if ev.text != "" {
			s.emit(ev.text + "\n")
		}
	case eventLiteral:
		s.emit(line + "\n")
	}
}

// consumeStderr mirrors agent stderr to the operator and the log sink
// without touching the accumulated output buffer.
func (s *outputStream) consumeStderr(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		s.mu.Lock()
		fmt.Fprintln(os.Stderr, line)
		if s.sink != nil {
			fmt.Fprintln(s.sink, line)
		}
		s.mu.Unlock()
	}
	return scanner.Err()
}

// result finalizes the stream into a Result, guaranteeing the accumulated
// output is newline-terminated for clean downstream display.
func (s *outputStream) result(exitCode int) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	output := s.buf.String()
	if !strings.HasSuffix(output, "\n") {
		output += "\n"
	}

	res := &Result{
		Output:    output,
		ExitCode:  exitCode,
		SessionID: s.sessionID,
	}
	if s.usage != nil {
		res.ContextUsedPercent = int(math.Round(float64(s.usage.Total()) / contextWindowTokens * 100))
	}
	return res
}
