package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	addFile  string
	addLabel string
)

var addCmd = &cobra.Command{
	Use:   "add [description]",
	Short: "Add a work item to the queue",
	Long: `Add a work item, either inline or backed by a file.

An inline item carries its description in the state file. A file-backed
item stores only the path; the file is re-read at the start of every
iteration, so edits between iterations take effect.

Example:
  ralph add "Fix the flaky TestServerRestart"
  ralph add --file plans/refactor-storage.md --label refactor`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		description := ""
		if len(args) > 0 {
			description = strings.TrimSpace(args[0])
		}
		if description == "" && addFile == "" {
			fmt.Fprintln(os.Stderr, "Error: provide a description or --file")
			os.Exit(1)
		}
		if description != "" && addFile != "" {
			fmt.Fprintln(os.Stderr, "Error: description and --file are mutually exclusive")
			os.Exit(1)
		}
		if addFile != "" {
			if _, err := os.Stat(addFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %s is not readable yet: %v\n", addFile, err)
			}
		}

		settings := loadSettings()
		doc := mustLoadDoc(settings.StateFile)
		item := doc.AddItem(description, addFile, addLabel)
		mustSaveDoc(doc, settings.StateFile)

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Added item %d: %s\n", green("✓"), item.ID, item.Summary())
	},
}

func init() {
	addCmd.Flags().StringVar(&addFile, "file", "", "Path to a file containing the work description")
	addCmd.Flags().StringVar(&addLabel, "label", "", "Free-form label for the item")
	rootCmd.AddCommand(addCmd)
}
