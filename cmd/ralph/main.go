package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "ralph",
	Short: "Autonomous iteration loop for coding agents",
	Long: `Ralph runs a coding agent in a loop until the work is done.

Work items live in a JSON state file (.ralph/state.json). Each iteration
ralph picks the next pending item, builds an instruction prompt, runs the
agent, and watches its output for a completion marker. The loop stops when
the marker appears, the iteration cap is reached, or you interrupt it.

Typical session:
  ralph init
  ralph add "Fix the flaky TestServerRestart"
  ralph run --max-iterations 5`,
	SilenceUsage: true,
}

// loadSettings resolves defaults, the settings file, and RALPH_* environment
// variables. Flag overrides are applied by each command on top of this.
func loadSettings() *config.Settings {
	settings, err := config.Load(config.DefaultPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		settings = config.Default()
	}
	settings.ApplyEnv()
	return settings
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
