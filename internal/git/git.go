// Package git wraps the git CLI for the branch maintenance commands.
// Ralph never links a git library; every operation shells out to the
// git binary found on PATH, the same binary the agent itself uses.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Git runs git commands against a repository working tree.
type Git struct {
	gitPath string
}

// NewGit locates the git binary and verifies it responds.
func NewGit(ctx context.Context) (*Git, error) {
	path, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git binary not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, "--version")
	if out, err := cmd.Output(); err != nil {
		return nil, fmt.Errorf("git at %s is not runnable: %w", path, err)
	} else if !strings.HasPrefix(string(out), "git version") {
		return nil, fmt.Errorf("unexpected git version output: %q", strings.TrimSpace(string(out)))
	}

	return &Git{gitPath: path}, nil
}

// run executes a git subcommand in repoPath and returns trimmed stdout.
func (g *Git) run(ctx context.Context, repoPath string, args ...string) (string, error) {
	full := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, g.gitPath, full...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentBranch returns the checked-out branch name, or an error in a
// detached HEAD state.
func (g *Git) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	out, err := g.run(ctx, repoPath, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("detached HEAD in %s", repoPath)
	}
	return out, nil
}

// IsRepo reports whether repoPath is inside a git working tree.
func (g *Git) IsRepo(ctx context.Context, repoPath string) bool {
	out, err := g.run(ctx, repoPath, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// ListMergedBranches returns local branches fully merged into
// defaultBranch, excluding the default branch itself and the branch
// currently checked out.
func (g *Git) ListMergedBranches(ctx context.Context, repoPath, defaultBranch string) ([]string, error) {
	out, err := g.run(ctx, repoPath, "branch", "--merged", defaultBranch, "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}

	current, err := g.CurrentBranch(ctx, repoPath)
	if err != nil {
		// Detached HEAD still allows pruning; nothing to exclude.
		current = ""
	}

	var merged []string
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || name == defaultBranch || name == current {
			continue
		}
		merged = append(merged, name)
	}
	return merged, nil
}

// DeleteBranch removes a local branch. Only -d is used, so git itself
// refuses if the branch is somehow not merged.
func (g *Git) DeleteBranch(ctx context.Context, repoPath, branch string) error {
	_, err := g.run(ctx, repoPath, "branch", "-d", branch)
	return err
}
