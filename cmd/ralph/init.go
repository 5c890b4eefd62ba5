package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/state"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a ralph state file in the current directory",
	Long: `Initialize ralph by creating .ralph/state.json with an empty work list.

Example:
  cd ~/myproject
  ralph init
  ralph add "Port the config loader to YAML"`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := loadSettings()

		if _, ok := state.Load(settings.StateFile); ok {
			fmt.Fprintf(os.Stderr, "Error: state file already exists at %s\n", settings.StateFile)
			os.Exit(1)
		}

		doc := state.CreateInitial()
		if err := state.Save(doc, settings.StateFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Initialized ralph\n", green("✓"))
		fmt.Printf("  State file: %s\n", cyan(settings.StateFile))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
