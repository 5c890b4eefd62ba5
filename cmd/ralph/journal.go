package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Create today's journal entry",
	Long: `Create a dated markdown journal entry in the journal directory.

The entry has Plan, Log, and Notes sections. An existing entry for today
is never overwritten; its path is printed instead.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := loadSettings()

		path, err := journal.Create(settings.JournalDir, time.Now())
		if errors.Is(err, journal.ErrExists) {
			fmt.Printf("Journal entry already exists: %s\n", path)
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Created %s\n", green("✓"), path)
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
}
