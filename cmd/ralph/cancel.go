package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/state"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a work item",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseItemID(args[0])
		settings := loadSettings()
		doc := mustLoadDoc(settings.StateFile)
		item := mustFindItem(doc, id)

		item.Status = state.ItemCancelled
		mustSaveDoc(doc, settings.StateFile)

		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("%s Item %d cancelled: %s\n", gray("-"), item.ID, item.Summary())
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
