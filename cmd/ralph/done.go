package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a work item as done",
	Long: `Mark a work item as done.

The agent prompt instructs the agent to run this after finishing an item,
so the loop sees the result on its next reconcile.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseItemID(args[0])
		settings := loadSettings()
		doc := mustLoadDoc(settings.StateFile)
		item := mustFindItem(doc, id)

		item.MarkDone(time.Now().UTC())
		mustSaveDoc(doc, settings.StateFile)

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Item %d done: %s\n", green("✓"), item.ID, item.Summary())
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
}
