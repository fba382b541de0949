package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// StagedDiff returns the index-vs-HEAD patch of the repository at dir, as
// printed by git diff --cached. Used to tag a change before it is committed.
func StagedDiff(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--no-color", "--no-ext-diff")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff --cached: %w", err)
	}
	return string(output), nil
}

// FindGitRoot returns the root directory of the repository containing dir
func FindGitRoot(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository: %s", dir)
	}
	return strings.TrimSpace(string(output)), nil
}
