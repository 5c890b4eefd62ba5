package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/loop"
	"github.com/steveyegge/ralph/internal/prompt"
)

var (
	runMaxIterations int
	runTaskID        int
	runNoCommit      bool
	runDryRun        bool
	runAgentArgs     string
	runMarker        string
	runStatePath     string
	runHistoryPath   string
	runLogPath       string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent loop until the work is done",
	Long: `Run the iteration loop: pick the next pending work item, prompt the
agent, stream its output, and repeat until the completion marker appears
or the iteration cap is hit.

The first Ctrl-C asks the loop to stop after the current iteration and
marks the run as interrupted on disk. A second Ctrl-C kills the agent
immediately.

Exit codes: 0 on completion, 2 when the iteration cap is reached without
completion, 130 on forced interrupt.

Example:
  ralph run                         # defaults: 10 iterations, marker RALPH_DONE
  ralph run --max-iterations 3 --task 7
  ralph run --dry-run               # preview the prompt, never spawn the agent`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := loadSettings()

		// Flags beat file and environment, but only when set.
		if cmd.Flags().Changed("max-iterations") {
			settings.MaxIterations = runMaxIterations
		}
		if cmd.Flags().Changed("no-commit") {
			settings.AutoCommit = !runNoCommit
		}
		if cmd.Flags().Changed("agent-args") {
			settings.AgentArgs = runAgentArgs
		}
		if cmd.Flags().Changed("marker") {
			settings.CompletionMarker = runMarker
		}
		if cmd.Flags().Changed("state") {
			settings.StateFile = runStatePath
		}
		if cmd.Flags().Changed("history") {
			settings.HistoryFile = runHistoryPath
		}

		if len(settings.CompletionMarker) < prompt.MinMarkerLength {
			fmt.Fprintf(os.Stderr, "Error: completion marker %q is shorter than %d characters; short markers match ordinary output\n",
				settings.CompletionMarker, prompt.MinMarkerLength)
			os.Exit(1)
		}

		cfg := loop.Config{
			StatePath:     settings.StateFile,
			HistoryPath:   settings.HistoryFile,
			MaxIterations: settings.MaxIterations,
			FocusID:       runTaskID,
			AutoCommit:    settings.AutoCommit,
			DryRun:        runDryRun,
			Marker:        settings.CompletionMarker,
			AgentBin:      settings.AgentBinary,
			AgentArgs:     settings.SplitAgentArgs(),
		}

		if runLogPath != "" {
			f, err := os.OpenFile(runLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to open log file: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			cfg.LogSink = f
		}

		interrupter := loop.NewInterrupter(settings.StateFile)
		controller, err := loop.New(cfg, interrupter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 2)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			for range sigCh {
				if interrupter.Signal() > 1 {
					// Second signal: stop waiting for the agent.
					cancel()
					fmt.Fprintln(os.Stderr, "\nForced interrupt")
					os.Exit(130)
				}
				fmt.Fprintln(os.Stderr, "\nInterrupt requested; finishing current iteration (Ctrl-C again to force)")
			}
		}()

		outcome, err := controller.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		switch outcome {
		case loop.OutcomeCompleted:
			fmt.Printf("\n%s Run completed\n", green("✓"))
		case loop.OutcomeMaxIterations:
			fmt.Printf("\n%s Iteration cap reached without completion\n", yellow("!"))
			os.Exit(2)
		case loop.OutcomeInterrupted:
			fmt.Printf("\n%s Run interrupted\n", yellow("!"))
		}
	},
}

func init() {
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 10, "Maximum loop iterations before giving up")
	runCmd.Flags().IntVar(&runTaskID, "task", 0, "Work only on the item with this id")
	runCmd.Flags().BoolVar(&runNoCommit, "no-commit", false, "Skip the commit instruction in the agent prompt")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print the resolved configuration and prompt without running the agent")
	runCmd.Flags().StringVar(&runAgentArgs, "agent-args", "", "Extra arguments passed to the agent binary (whitespace-delimited)")
	runCmd.Flags().StringVar(&runMarker, "marker", "", "Completion marker to watch for in agent output")
	runCmd.Flags().StringVar(&runStatePath, "state", "", "Path to the state file")
	runCmd.Flags().StringVar(&runHistoryPath, "history", "", "Path to the history log")
	runCmd.Flags().StringVar(&runLogPath, "log", "", "Mirror all agent output to this file")
	rootCmd.AddCommand(runCmd)
}
