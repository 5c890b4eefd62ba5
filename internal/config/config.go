// Package config resolves toolbox settings from three layers: built-in
// defaults, an optional YAML settings file, and RALPH_* environment
// variables. Command-line flags are applied last by the CLI layer, so the
// precedence is defaults < file < environment < flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/ralph/internal/agent"
	"github.com/steveyegge/ralph/internal/history"
	"github.com/steveyegge/ralph/internal/prompt"
	"github.com/steveyegge/ralph/internal/state"
)

// DefaultPath is the settings file location, relative to the working
// directory the toolbox is invoked from.
const DefaultPath = ".ralph/config.yaml"

// Settings holds every tunable the toolbox reads.
type Settings struct {
	// Loop runner
	MaxIterations    int    `yaml:"max_iterations"`
	AutoCommit       bool   `yaml:"auto_commit"`
	CompletionMarker string `yaml:"completion_marker"`
	AgentBinary      string `yaml:"agent_binary"`
	AgentArgs        string `yaml:"agent_args"` // whitespace-delimited extra arguments
	StateFile        string `yaml:"state_file"`
	HistoryFile      string `yaml:"history_file"`

	// Toolbox surfaces
	JournalDir    string `yaml:"journal_dir"`
	DefaultBranch string `yaml:"default_branch"`
	ReportFile    string `yaml:"report_file"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		MaxIterations:    10,
		AutoCommit:       true,
		CompletionMarker: prompt.DefaultMarker,
		AgentBinary:      agent.DefaultBinary,
		StateFile:        state.DefaultPath,
		HistoryFile:      history.DefaultPath,
		JournalDir:       "journal",
		DefaultBranch:    "main",
		ReportFile:       ".ralph/report.html",
	}
}

// Load reads settings from the YAML file at path, layered over the defaults.
// A missing file is not an error; a file that exists but fails to parse is,
// since silently ignoring a broken settings file hides operator mistakes.
func Load(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return s, nil
}

// ApplyEnv overrides settings from RALPH_* environment variables.
func (s *Settings) ApplyEnv() {
	if val := os.Getenv("RALPH_MAX_ITERATIONS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			s.MaxIterations = n
		}
	}
	if val := os.Getenv("RALPH_AUTO_COMMIT"); val != "" {
		s.AutoCommit = parseBool(val)
	}
	if val := os.Getenv("RALPH_COMPLETION_MARKER"); val != "" {
		s.CompletionMarker = val
	}
	if val := os.Getenv("RALPH_AGENT_BIN"); val != "" {
		s.AgentBinary = val
	}
	if val := os.Getenv("RALPH_AGENT_ARGS"); val != "" {
		s.AgentArgs = val
	}
	if val := os.Getenv("RALPH_STATE_FILE"); val != "" {
		s.StateFile = val
	}
	if val := os.Getenv("RALPH_HISTORY_FILE"); val != "" {
		s.HistoryFile = val
	}
	if val := os.Getenv("RALPH_JOURNAL_DIR"); val != "" {
		s.JournalDir = val
	}
	if val := os.Getenv("RALPH_DEFAULT_BRANCH"); val != "" {
		s.DefaultBranch = val
	}
}

// SplitAgentArgs tokenizes the whitespace-delimited extra agent arguments.
func (s *Settings) SplitAgentArgs() []string {
	return strings.Fields(s.AgentArgs)
}

func parseBool(val string) bool {
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
