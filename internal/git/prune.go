package git

import (
	"context"
	"fmt"
	"io"
)

// PruneResult summarizes a branch pruning pass.
type PruneResult struct {
	Deleted []string
	Failed  map[string]error
	DryRun  bool
}

// Prune deletes local branches already merged into defaultBranch. With
// dryRun set it only reports what would be deleted. Failures to delete
// individual branches are collected rather than aborting the pass.
func (g *Git) Prune(ctx context.Context, w io.Writer, repoPath, defaultBranch string, dryRun bool) (*PruneResult, error) {
	merged, err := g.ListMergedBranches(ctx, repoPath, defaultBranch)
	if err != nil {
		return nil, fmt.Errorf("listing merged branches: %w", err)
	}

	result := &PruneResult{DryRun: dryRun, Failed: make(map[string]error)}
	if len(merged) == 0 {
		fmt.Fprintf(w, "No branches merged into %s\n", defaultBranch)
		return result, nil
	}

	for _, branch := range merged {
		if dryRun {
			fmt.Fprintf(w, "[DRY RUN] Would delete: %s\n", branch)
			result.Deleted = append(result.Deleted, branch)
			continue
		}
		if err := g.DeleteBranch(ctx, repoPath, branch); err != nil {
			fmt.Fprintf(w, "Failed to delete %s: %v\n", branch, err)
			result.Failed[branch] = err
			continue
		}
		fmt.Fprintf(w, "Deleted: %s\n", branch)
		result.Deleted = append(result.Deleted, branch)
	}

	return result, nil
}
