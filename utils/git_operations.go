package utils

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// GitOperations handles git-related operations
type GitOperations struct {
	workingDir string
}

// NewGitOperations creates a new GitOperations instance
func NewGitOperations(workingDir string) *GitOperations {
	return &GitOperations{workingDir: workingDir}
}

// CheckGitRepo checks if the working directory is inside a git repository
func (g *GitOperations) CheckGitRepo(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--git-dir")
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return errors.New("not a git repository")
	}
	return nil
}

// GetGitStatus returns the porcelain status of the given paths, or of the whole tree when none
// are given.
func (g *GitOperations) GetGitStatus(ctx context.Context, paths ...string) (string, error) {
	args := []string{"status", "--porcelain"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil {
		return "", errors.Errorf("failed to get git status: %w", err)
	}
	return string(output), nil
}

// UncommittedFiles returns the subset of paths that have uncommitted changes. Paths may be
// absolute; they are reported back as given.
func (g *GitOperations) UncommittedFiles(ctx context.Context, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	root := FindRepoRoot(g.workingDir)
	if root == "" {
		return nil, errors.New("not a git repository")
	}

	status, err := g.GetGitStatus(ctx, paths...)
	if err != nil {
		return nil, err
	}

	dirty := make(map[string]bool)
	for _, line := range strings.Split(status, "\n") {
		if len(line) < 4 {
			continue
		}
		name := strings.TrimSpace(line[3:])
		if idx := strings.Index(name, " -> "); idx >= 0 {
			name = name[idx+4:]
		}
		dirty[filepath.Clean(filepath.Join(root, strings.Trim(name, `"`)))] = true
	}

	var changed []string
	for _, path := range paths {
		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(g.workingDir, abs)
		}
		if dirty[filepath.Clean(abs)] {
			changed = append(changed, path)
		}
	}
	return changed, nil
}
