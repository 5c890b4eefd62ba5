package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/history"
	"github.com/steveyegge/ralph/internal/report"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the iteration history as an HTML page",
	Long: `Render the history log as a standalone HTML page: one tile per
iteration, sized by duration and shaded by context window usage.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := loadSettings()
		out := reportOut
		if out == "" {
			out = settings.ReportFile
		}

		entries, err := history.Read(settings.HistoryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		f, err := os.Create(out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		if err := report.Generate(f, entries); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Wrote %s (%d iterations)\n", green("✓"), out, len(entries))
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "", "Output path (default: configured report_file)")
	rootCmd.AddCommand(reportCmd)
}
