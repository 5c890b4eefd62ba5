package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	Long: `Print the effective configuration after layering defaults, the
settings file (` + config.DefaultPath + `), and RALPH_* environment
variables. Run flags would apply on top of these values.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := loadSettings()

		gray := color.New(color.FgHiBlack).SprintFunc()
		print := func(key string, value interface{}) {
			fmt.Printf("  %s %v\n", gray(fmt.Sprintf("%-18s", key)), value)
		}

		fmt.Println("Resolved configuration:")
		print("max_iterations", settings.MaxIterations)
		print("auto_commit", settings.AutoCommit)
		print("completion_marker", settings.CompletionMarker)
		print("agent_binary", settings.AgentBinary)
		print("agent_args", settings.AgentArgs)
		print("state_file", settings.StateFile)
		print("history_file", settings.HistoryFile)
		print("journal_dir", settings.JournalDir)
		print("default_branch", settings.DefaultBranch)
		print("report_file", settings.ReportFile)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
