package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/state"
)

var blockReason string

var blockCmd = &cobra.Command{
	Use:   "block <id>",
	Short: "Mark a work item as blocked",
	Long: `Mark a work item as blocked.

Blocked items keep their place in the list and still show up to the
loop, which surfaces the status to the agent rather than silently
skipping them. Clear the block by editing the state file or cancelling
the item.

Example:
  ralph block 3 --reason "waiting on upstream fix"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseItemID(args[0])
		settings := loadSettings()
		doc := mustLoadDoc(settings.StateFile)
		item := mustFindItem(doc, id)

		item.Status = state.ItemBlocked
		item.Error = blockReason
		mustSaveDoc(doc, settings.StateFile)

		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("%s Item %d blocked", yellow("!"), item.ID)
		if blockReason != "" {
			fmt.Printf(": %s", blockReason)
		}
		fmt.Println()
	},
}

func init() {
	blockCmd.Flags().StringVar(&blockReason, "reason", "", "Why the item is blocked")
	rootCmd.AddCommand(blockCmd)
}
