package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGitIgnore_RootRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "# comment\nignored.txt\n*.log\nbuild/\n")

	gi := NewGitIgnore(dir)
	assert.Equal(t, dir, gi.Boundary())

	cases := map[string]bool{
		"a.txt":              false,
		"ignored.txt":        true,
		"debug.log":          true,
		"nested/trace.log":   true,
		"build/output.bin":   true,
		"nested/ignored.txt": true,
		"nested/keep.md":     false,
	}
	for rel, expected := range cases {
		ignored, _, err := gi.IsIgnored(filepath.Join(dir, rel))
		require.NoError(t, err)
		assert.Equal(t, expected, ignored, rel)
	}
}

func TestGitIgnore_NestedNegationOverridesParent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "*.txt\n")
	writeFile(t, filepath.Join(dir, "docs", ".gitignore"), "!keep.txt\n")

	gi := NewGitIgnore(dir)

	ignored, _, err := gi.IsIgnored(filepath.Join(dir, "docs", "keep.txt"))
	require.NoError(t, err)
	assert.False(t, ignored)

	ignored, line, err := gi.IsIgnored(filepath.Join(dir, "docs", "other.txt"))
	require.NoError(t, err)
	assert.True(t, ignored)
	assert.Equal(t, "*.txt", line)
}

func TestGitIgnore_LastRuleWinsWithinFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "*.txt\n!important.txt\n")

	gi := NewGitIgnore(dir)

	ignored, line, err := gi.IsIgnored(filepath.Join(dir, "important.txt"))
	require.NoError(t, err)
	assert.False(t, ignored)
	assert.Equal(t, "!important.txt", line)
}

func TestGitIgnore_ExcludedDirectoryCannotBeReincluded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "build/\n!build/keep.txt\nvendor\n")
	writeFile(t, filepath.Join(dir, "vendor", ".gitignore"), "!*.go\n")

	gi := NewGitIgnore(dir)

	ignored, line, err := gi.IsIgnored(filepath.Join(dir, "build", "keep.txt"))
	require.NoError(t, err)
	assert.True(t, ignored)
	assert.Equal(t, "build/", line)

	ignored, _, err = gi.IsIgnored(filepath.Join(dir, "build", "nested", "keep.txt"))
	require.NoError(t, err)
	assert.True(t, ignored)

	ignored, line, err = gi.IsIgnored(filepath.Join(dir, "vendor", "lib", "lib.go"))
	require.NoError(t, err)
	assert.True(t, ignored)
	assert.Equal(t, "vendor", line)
}

func TestGitIgnore_DirectoryContentsCanBeReincluded(t *testing.T) {
	cases := map[string]string{
		"single star": "build/*\n!build/keep.txt\n",
		"double star": "build/**\n!build/keep.txt\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ".gitignore"), content)

			gi := NewGitIgnore(dir)

			ignored, _, err := gi.IsIgnored(filepath.Join(dir, "build", "keep.txt"))
			require.NoError(t, err)
			assert.False(t, ignored)

			ignored, _, err = gi.IsIgnored(filepath.Join(dir, "build", "drop.txt"))
			require.NoError(t, err)
			assert.True(t, ignored)
		})
	}
}

func TestGitIgnore_BoundaryIsRepoRoot(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(repo, ".git"), 0o755))
	writeFile(t, filepath.Join(repo, ".gitignore"), "secret.txt\n")
	sub := filepath.Join(repo, "pkg", "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	gi := NewGitIgnore(sub)
	assert.Equal(t, repo, gi.Boundary())

	ignored, _, err := gi.IsIgnored(filepath.Join(sub, "secret.txt"))
	require.NoError(t, err)
	assert.True(t, ignored)
}

func TestGitIgnore_OutsideBoundaryUsesOwnDirectory(t *testing.T) {
	root := t.TempDir()
	cwd := filepath.Join(root, "work")
	other := filepath.Join(root, "other")
	writeFile(t, filepath.Join(root, ".gitignore"), "*.txt\n")
	writeFile(t, filepath.Join(other, ".gitignore"), "skip.md\n")
	require.NoError(t, os.MkdirAll(cwd, 0o755))

	gi := NewGitIgnore(cwd)

	ignored, _, err := gi.IsIgnored(filepath.Join(other, "a.txt"))
	require.NoError(t, err)
	assert.False(t, ignored)

	ignored, _, err = gi.IsIgnored(filepath.Join(other, "skip.md"))
	require.NoError(t, err)
	assert.True(t, ignored)
}

func TestGitIgnore_CachesCompiledFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "a.txt\n")

	gi := NewGitIgnore(dir)
	ignored, _, err := gi.IsIgnored(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.True(t, ignored)

	// Later edits are not observed for the lifetime of the matcher.
	writeFile(t, filepath.Join(dir, ".gitignore"), "b.txt\n")
	ignored, _, err = gi.IsIgnored(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.True(t, ignored)
}

func TestFindRepoRoot(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, FindRepoRoot(dir))

	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	assert.Equal(t, dir, FindRepoRoot(nested))
}

func TestIsVCSPath(t *testing.T) {
	assert.True(t, IsVCSPath(".git/config"))
	assert.True(t, IsVCSPath("vendor/.hg/store"))
	assert.True(t, IsVCSPath("/tmp/repo/.svn/entries"))
	assert.False(t, IsVCSPath("src/.gitignore"))
	assert.False(t, IsVCSPath("docs/git.md"))
}
