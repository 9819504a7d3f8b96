package file_selector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/meysamhadeli/aifiles/app_errors"
	"github.com/meysamhadeli/aifiles/file_selector/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relativePaths(tasks []models.FileTask) []string {
	paths := make([]string, 0, len(tasks))
	for _, task := range tasks {
		paths = append(paths, task.RelativePath)
	}
	return paths
}

func setupScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "b.txt"), "bravo")
	writeFile(t, filepath.Join(dir, "ignored.txt"), "secret")
	writeFile(t, filepath.Join(dir, ".gitignore"), "ignored.txt\n")
	return dir
}

func TestSelect_SkipsGitignoredFiles(t *testing.T) {
	dir := setupScenario(t)

	tasks, err := NewFileSelector(dir, true).Select(context.Background(), []string{"*.txt"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "b.txt"}, relativePaths(tasks))
	assert.Equal(t, filepath.Join(dir, "a.txt"), tasks[0].Path)
}

func TestSelect_NoGitignore(t *testing.T) {
	dir := setupScenario(t)

	tasks, err := NewFileSelector(dir, false).Select(context.Background(), []string{"*.txt"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "b.txt", "ignored.txt"}, relativePaths(tasks))
}

func TestSelect_RecursiveDoubleStar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main")
	writeFile(t, filepath.Join(dir, "pkg", "a", "a.go"), "package a")
	writeFile(t, filepath.Join(dir, "pkg", "a", "notes.md"), "notes")

	tasks, err := NewFileSelector(dir, true).Select(context.Background(), []string{"**/*.go"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "pkg/a/a.go"}, relativePaths(tasks))

	tasks, err = NewFileSelector(dir, true).Select(context.Background(), []string{"*.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, relativePaths(tasks))
}

func TestSelect_DeduplicatesInFirstSeenOrder(t *testing.T) {
	dir := setupScenario(t)

	tasks, err := NewFileSelector(dir, true).Select(context.Background(), []string{"b.txt", "*.txt", "./a.txt"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.txt", "a.txt"}, relativePaths(tasks))
}

func TestSelect_ZeroMatchesIsNotAnError(t *testing.T) {
	dir := setupScenario(t)

	tasks, err := NewFileSelector(dir, true).Select(context.Background(), []string{"*.nothing"})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSelect_InvalidPattern(t *testing.T) {
	dir := setupScenario(t)

	_, err := NewFileSelector(dir, true).Select(context.Background(), []string{"*.txt", "[abc"})
	require.Error(t, err)
	assert.ErrorIs(t, err, app_errors.ErrSelection)
	assert.True(t, app_errors.IsFatal(err))
	assert.Contains(t, err.Error(), "[abc")
}

func TestSelect_EmptyPattern(t *testing.T) {
	_, err := NewFileSelector(t.TempDir(), true).Select(context.Background(), []string{"  "})
	assert.ErrorIs(t, err, app_errors.ErrSelection)
}

func TestSelect_DirectoriesAreNeverTasks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "file.txt"), "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.txt"), 0o755))

	tasks, err := NewFileSelector(dir, true).Select(context.Background(), []string{"*", "folder.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"file.txt"}, relativePaths(tasks))
}

func TestSelect_ExcludesVCSDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".git", "config"), "[core]")
	writeFile(t, filepath.Join(dir, "vendor", ".hg", "store"), "x")
	writeFile(t, filepath.Join(dir, "src", "main.go"), "package main")

	tasks, err := NewFileSelector(dir, false).Select(context.Background(), []string{"**/*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.go"}, relativePaths(tasks))
}

func TestSelect_NestedGitignoreNegation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "*.log\n")
	writeFile(t, filepath.Join(dir, "logs", ".gitignore"), "!keep.log\n")
	writeFile(t, filepath.Join(dir, "logs", "keep.log"), "keep")
	writeFile(t, filepath.Join(dir, "logs", "drop.log"), "drop")
	writeFile(t, filepath.Join(dir, "root.log"), "root")

	tasks, err := NewFileSelector(dir, true).Select(context.Background(), []string{"**/*.log"})
	require.NoError(t, err)
	assert.Equal(t, []string{"logs/keep.log"}, relativePaths(tasks))
}

func TestSelect_NegationInsideExcludedDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "build/\n!build/keep.txt\n")
	writeFile(t, filepath.Join(dir, "build", "keep.txt"), "keep")
	writeFile(t, filepath.Join(dir, "build", "out.txt"), "out")
	writeFile(t, filepath.Join(dir, "src.txt"), "src")

	tasks, err := NewFileSelector(dir, true).Select(context.Background(), []string{"**/*.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src.txt"}, relativePaths(tasks))
}

func TestSelect_PatternsOutsideWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	cwd := filepath.Join(root, "work")
	require.NoError(t, os.MkdirAll(cwd, 0o755))
	writeFile(t, filepath.Join(root, "shared", "x.txt"), "x")

	selector := NewFileSelector(cwd, true)

	tasks, err := selector.Select(context.Background(), []string{"../shared/*.txt"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, filepath.Join(root, "shared", "x.txt"), tasks[0].Path)

	tasks, err = selector.Select(context.Background(), []string{filepath.Join(root, "shared", "*.txt")})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, filepath.Join(root, "shared", "x.txt"), tasks[0].Path)
}

func TestSelect_CancelledContext(t *testing.T) {
	dir := setupScenario(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSelector(dir, true).Select(ctx, []string{"*.txt"})
	assert.ErrorIs(t, err, context.Canceled)
}
