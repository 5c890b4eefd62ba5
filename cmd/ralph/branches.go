package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ralph/internal/git"
)

var (
	branchesPrune  bool
	branchesDryRun bool
)

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List or prune branches merged into the default branch",
	Long: `List local branches already merged into the default branch.

With --prune the merged branches are deleted (git branch -d, so git
still refuses anything it considers unmerged). Combine with --dry-run
to preview.

Example:
  ralph branches
  ralph branches --prune --dry-run
  ralph branches --prune`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := loadSettings()
		ctx := context.Background()

		g, err := git.NewGit(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !g.IsRepo(ctx, cwd) {
			fmt.Fprintln(os.Stderr, "Error: not a git repository")
			os.Exit(1)
		}

		if branchesPrune {
			res, err := g.Prune(ctx, os.Stdout, cwd, settings.DefaultBranch, branchesDryRun)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if len(res.Failed) > 0 {
				os.Exit(1)
			}
			return
		}

		merged, err := g.ListMergedBranches(ctx, cwd, settings.DefaultBranch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(merged) == 0 {
			fmt.Printf("No branches merged into %s\n", settings.DefaultBranch)
			return
		}
		cyan := color.New(color.FgCyan).SprintFunc()
		for _, b := range merged {
			fmt.Println(cyan(b))
		}
	},
}

func init() {
	branchesCmd.Flags().BoolVar(&branchesPrune, "prune", false, "Delete the merged branches")
	branchesCmd.Flags().BoolVar(&branchesDryRun, "dry-run", false, "With --prune, only show what would be deleted")
	rootCmd.AddCommand(branchesCmd)
}
