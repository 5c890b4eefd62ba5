package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/state"
)

var listPending bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List work items",
	Long: `List work items with their status.

By default done and cancelled items are shown along with pending ones;
--pending hides everything already settled.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := loadSettings()
		doc := mustLoadDoc(settings.StateFile)

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(doc.Items) == 0 {
			fmt.Println(gray("No work items. Add one with: ralph add \"...\""))
			return
		}

		for _, item := range doc.Items {
			if listPending && (item.Status == state.ItemDone || item.Status == state.ItemCancelled) {
				continue
			}
			fmt.Printf("%s %3d  %s", statusGlyph(item.Status), item.ID, item.Summary())
			if item.Label != "" {
				fmt.Printf("  %s", gray("["+item.Label+"]"))
			}
			fmt.Println()
			if item.Error != "" {
				fmt.Printf("       %s\n", color.New(color.FgRed).Sprintf("error: %s", item.Error))
			}
		}
	},
}

// statusGlyph renders a colored one-character marker for an item status.
func statusGlyph(s state.ItemStatus) string {
	switch s {
	case state.ItemDone:
		return color.New(color.FgGreen).Sprint("✓")
	case state.ItemBlocked:
		return color.New(color.FgYellow).Sprint("!")
	case state.ItemCancelled:
		return color.New(color.FgHiBlack).Sprint("-")
	default:
		return color.New(color.FgCyan).Sprint("○")
	}
}

func init() {
	listCmd.Flags().BoolVar(&listPending, "pending", false, "Hide done and cancelled items")
	rootCmd.AddCommand(listCmd)
}
