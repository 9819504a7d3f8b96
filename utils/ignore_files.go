package utils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"
	"gitlab.com/tozd/go/errors"
)

const gitignoreFileName = ".gitignore"

// vcsDirs are never part of a selection, whatever the ignore files say.
var vcsDirs = []string{".git", ".hg", ".svn"}

// ignoreRule is one compiled line of a .gitignore file.
type ignoreRule struct {
	matcher    *ignore.GitIgnore
	negate     bool
	dirOnly    bool
	contentsOf string
	line       string
}

// GitIgnore answers whether paths are excluded by the .gitignore files between a boundary
// directory and the path itself. Compiled files are cached per directory.
type GitIgnore struct {
	boundary string

	mu    sync.Mutex
	rules map[string][]ignoreRule
}

// NewGitIgnore creates a matcher whose boundary is the repository root containing cwd, or cwd
// itself outside a repository.
func NewGitIgnore(cwd string) *GitIgnore {
	boundary := FindRepoRoot(cwd)
	if boundary == "" {
		boundary = filepath.Clean(cwd)
	}
	return &GitIgnore{
		boundary: boundary,
		rules:    make(map[string][]ignoreRule),
	}
}

// Boundary returns the top-most directory whose .gitignore applies.
func (g *GitIgnore) Boundary() string {
	return g.boundary
}

// FindRepoRoot walks up from dir and returns the first directory holding a .git entry, or "".
func FindRepoRoot(dir string) string {
	dir = filepath.Clean(dir)
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// IsIgnored reports whether the absolute path is excluded. Rules are applied from the boundary
// down to the file's own directory and the last matching rule wins, so a deeper "!" rule
// re-includes what a shallower file ignored. A file inside an excluded directory stays excluded
// whatever later rules say. The matching rule is returned for logging.
func (g *GitIgnore) IsIgnored(path string) (bool, string, error) {
	dirs := g.chain(filepath.Dir(path))

	for i := 1; i < len(dirs); i++ {
		ignored, line, err := g.match(dirs[:i], dirs[i], true)
		if err != nil {
			return false, "", err
		}
		if ignored {
			return true, line, nil
		}
	}

	return g.match(dirs, path, false)
}

// match applies the rules of every directory in dirs to path.
func (g *GitIgnore) match(dirs []string, path string, isDir bool) (bool, string, error) {
	ignored := false
	matchedLine := ""

	for _, dir := range dirs {
		rules, err := g.load(dir)
		if err != nil {
			return false, "", err
		}
		if len(rules) == 0 {
			continue
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)

		for i := range rules {
			if rules[i].matches(rel, isDir) {
				ignored = !rules[i].negate
				matchedLine = rules[i].line
			}
		}
	}

	return ignored, matchedLine, nil
}

// matches tests rel, a path relative to the rule's .gitignore directory.
func (r *ignoreRule) matches(rel string, isDir bool) bool {
	if !isDir {
		return r.matcher.MatchesPath(rel)
	}
	// "dir/**" matches what is inside dir, not dir itself.
	if r.contentsOf != "" && (rel == r.contentsOf || strings.HasSuffix(rel, "/"+r.contentsOf)) {
		return false
	}
	if r.dirOnly {
		return r.matcher.MatchesPath(rel + "/")
	}
	return r.matcher.MatchesPath(rel)
}

// chain lists the directories whose .gitignore applies to files in dir, shallowest first.
func (g *GitIgnore) chain(dir string) []string {
	rel, err := filepath.Rel(g.boundary, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return []string{dir}
	}

	dirs := []string{g.boundary}
	if rel == "." {
		return dirs
	}
	current := g.boundary
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		dirs = append(dirs, current)
	}
	return dirs
}

func (g *GitIgnore) load(dir string) ([]ignoreRule, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rules, ok := g.rules[dir]; ok {
		return rules, nil
	}

	content, err := os.ReadFile(filepath.Join(dir, gitignoreFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			g.rules[dir] = nil
			return nil, nil
		}
		return nil, errors.Errorf("error reading %s: %w", filepath.Join(dir, gitignoreFileName), err)
	}

	rules := parseIgnoreRules(string(content))
	g.rules[dir] = rules
	return rules, nil
}

// parseIgnoreRules compiles each line on its own so negations keep their position in the
// precedence order.
func parseIgnoreRules(content string) []ignoreRule {
	var rules []ignoreRule
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		negate := false
		pattern := trimmed
		if strings.HasPrefix(pattern, "!") {
			negate = true
			pattern = pattern[1:]
		}
		if pattern == "" {
			continue
		}

		rule := ignoreRule{
			matcher: ignore.CompileIgnoreLines(pattern),
			negate:  negate,
			dirOnly: strings.HasSuffix(pattern, "/"),
			line:    trimmed,
		}
		if base, ok := strings.CutSuffix(pattern, "/**"); ok {
			rule.contentsOf = strings.TrimPrefix(strings.TrimPrefix(base, "/"), "**/")
		}
		rules = append(rules, rule)
	}
	return rules
}

// IsVCSPath reports whether any component of path is a version control directory.
func IsVCSPath(path string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, part := range parts {
		for _, vcs := range vcsDirs {
			if part == vcs {
				return true
			}
		}
	}
	return false
}
