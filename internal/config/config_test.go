package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Default()
	assert.Equal(t, 10, s.MaxIterations)
	assert.True(t, s.AutoCommit)
	assert.Equal(t, "RALPH_DONE", s.CompletionMarker)
	assert.Equal(t, "claude", s.AgentBinary)
	assert.Equal(t, ".ralph/state.json", s.StateFile)
	assert.Equal(t, ".ralph/history.jsonl", s.HistoryFile)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
max_iterations: 25
auto_commit: false
completion_marker: ALL_TASKS_COMPLETE
agent_args: "--model opus"
journal_dir: notes/daily
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, s.MaxIterations)
	assert.False(t, s.AutoCommit)
	assert.Equal(t, "ALL_TASKS_COMPLETE", s.CompletionMarker)
	assert.Equal(t, []string{"--model", "opus"}, s.SplitAgentArgs())
	assert.Equal(t, "notes/daily", s.JournalDir)
	// Untouched fields keep their defaults.
	assert.Equal(t, "claude", s.AgentBinary)
}

func TestLoadBrokenFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\nnot yaml: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err, "a present-but-broken settings file must not be silently ignored")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("RALPH_MAX_ITERATIONS", "3")
	t.Setenv("RALPH_AUTO_COMMIT", "false")
	t.Setenv("RALPH_COMPLETION_MARKER", "WORK_FINISHED")
	t.Setenv("RALPH_AGENT_ARGS", "--model sonnet --verbose")
	t.Setenv("RALPH_STATE_FILE", "/tmp/s.json")

	s := Default()
	s.ApplyEnv()

	assert.Equal(t, 3, s.MaxIterations)
	assert.False(t, s.AutoCommit)
	assert.Equal(t, "WORK_FINISHED", s.CompletionMarker)
	assert.Equal(t, []string{"--model", "sonnet", "--verbose"}, s.SplitAgentArgs())
	assert.Equal(t, "/tmp/s.json", s.StateFile)
}

func TestApplyEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("RALPH_MAX_ITERATIONS", "zero")
	s := Default()
	s.ApplyEnv()
	assert.Equal(t, 10, s.MaxIterations)

	t.Setenv("RALPH_MAX_ITERATIONS", "-2")
	s.ApplyEnv()
	assert.Equal(t, 10, s.MaxIterations)
}
