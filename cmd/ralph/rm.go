package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a work item",
	Long: `Remove a work item from the state file.

The id is retired permanently; later additions get fresh ids even if the
removed one was the highest.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseItemID(args[0])
		settings := loadSettings()
		doc := mustLoadDoc(settings.StateFile)

		if !doc.Remove(id) {
			fmt.Fprintf(os.Stderr, "Error: no work item with id %d\n", id)
			os.Exit(1)
		}
		mustSaveDoc(doc, settings.StateFile)
		fmt.Printf("Removed item %d\n", id)
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
