package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) *Git {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	g, err := NewGit(context.Background())
	require.NoError(t, err)
	return g
}

// initRepo creates a repo with an initial commit on branch "main".
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	run("commit", "--allow-empty", "-m", "initial")
	return dir
}

func gitIn(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func TestCurrentBranch(t *testing.T) {
	g := requireGit(t)
	dir := initRepo(t)

	branch, err := g.CurrentBranch(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestIsRepo(t *testing.T) {
	g := requireGit(t)
	dir := initRepo(t)

	assert.True(t, g.IsRepo(context.Background(), dir))
	assert.False(t, g.IsRepo(context.Background(), t.TempDir()))
}

func TestListMergedBranches(t *testing.T) {
	g := requireGit(t)
	dir := initRepo(t)
	ctx := context.Background()

	// A branch pointing at main's tip is merged by definition.
	gitIn(t, dir, "branch", "merged-work")
	// A branch with its own commit is not.
	gitIn(t, dir, "checkout", "-b", "open-work")
	gitIn(t, dir, "commit", "--allow-empty", "-m", "wip")
	gitIn(t, dir, "checkout", "main")

	merged, err := g.ListMergedBranches(ctx, dir, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"merged-work"}, merged)
}

func TestListMergedExcludesCurrent(t *testing.T) {
	g := requireGit(t)
	dir := initRepo(t)
	ctx := context.Background()

	gitIn(t, dir, "branch", "merged-work")
	gitIn(t, dir, "checkout", "merged-work")

	merged, err := g.ListMergedBranches(ctx, dir, "main")
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestPruneDryRun(t *testing.T) {
	g := requireGit(t)
	dir := initRepo(t)
	ctx := context.Background()

	gitIn(t, dir, "branch", "merged-work")

	var buf bytes.Buffer
	res, err := g.Prune(ctx, &buf, dir, "main", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"merged-work"}, res.Deleted)
	assert.True(t, res.DryRun)
	assert.Contains(t, buf.String(), "[DRY RUN] Would delete: merged-work")

	// Branch still exists after a dry run.
	merged, err := g.ListMergedBranches(ctx, dir, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"merged-work"}, merged)
}

func TestPruneDeletes(t *testing.T) {
	g := requireGit(t)
	dir := initRepo(t)
	ctx := context.Background()

	gitIn(t, dir, "branch", "merged-work")

	var buf bytes.Buffer
	res, err := g.Prune(ctx, &buf, dir, "main", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"merged-work"}, res.Deleted)
	assert.Empty(t, res.Failed)
	assert.True(t, strings.Contains(buf.String(), "Deleted: merged-work"))

	merged, err := g.ListMergedBranches(ctx, dir, "main")
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestPruneNothingToDo(t *testing.T) {
	g := requireGit(t)
	dir := initRepo(t)

	var buf bytes.Buffer
	res, err := g.Prune(context.Background(), &buf, dir, "main", false)
	require.NoError(t, err)
	assert.Empty(t, res.Deleted)
	assert.Contains(t, buf.String(), "No branches merged into main")
}
