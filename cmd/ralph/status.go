package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/history"
	"github.com/steveyegge/ralph/internal/state"
)

var statusHistoryCount int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show run status, item counts, and recent iterations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := loadSettings()
		doc := mustLoadDoc(settings.StateFile)

		bold := color.New(color.Bold).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("%s\n", bold("Run"))
		fmt.Printf("  Status:   %s\n", runStatusColored(doc.Status))
		fmt.Printf("  Started:  %s\n", doc.StartedAt.Local().Format("2006-01-02 15:04:05"))
		if doc.SessionID != "" {
			fmt.Printf("  Session:  %s\n", cyan(doc.SessionID))
		}

		counts := map[state.ItemStatus]int{}
		for _, item := range doc.Items {
			counts[item.Status]++
		}
		fmt.Printf("\n%s\n", bold("Items"))
		fmt.Printf("  ready %d, done %d, blocked %d, cancelled %d\n",
			counts[state.ItemReady], counts[state.ItemDone],
			counts[state.ItemBlocked], counts[state.ItemCancelled])

		entries, err := history.Read(settings.HistoryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to read history: %v\n", err)
			return
		}
		if len(entries) == 0 {
			return
		}
		if len(entries) > statusHistoryCount {
			entries = entries[len(entries)-statusHistoryCount:]
		}
		fmt.Printf("\n%s\n", bold("Recent iterations"))
		for _, e := range entries {
			marker := " "
			if e.MarkerFound {
				marker = color.New(color.FgGreen).Sprint("✓")
			}
			ctx := ""
			if e.ContextUsedPercent > 0 {
				ctx = fmt.Sprintf(" %d%% ctx", e.ContextUsedPercent)
			}
			fmt.Printf("  %s #%d %s %s%s\n", marker, e.Iteration,
				e.StartedAt.Local().Format("15:04:05"), gray(e.DurationHuman), gray(ctx))
		}
	},
}

func runStatusColored(s state.RunStatus) string {
	switch s {
	case state.RunCompleted:
		return color.New(color.FgGreen).Sprint(string(s))
	case state.RunError:
		return color.New(color.FgRed).Sprint(string(s))
	case state.RunMaxIterations:
		return color.New(color.FgYellow).Sprint(string(s))
	default:
		return color.New(color.FgCyan).Sprint(string(s))
	}
}

func init() {
	statusCmd.Flags().IntVar(&statusHistoryCount, "history", 5, "Number of recent iterations to show")
	rootCmd.AddCommand(statusCmd)
}
