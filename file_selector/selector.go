package file_selector

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/meysamhadeli/aifiles/app_errors"
	"github.com/meysamhadeli/aifiles/file_selector/contracts"
	"github.com/meysamhadeli/aifiles/file_selector/models"
	"github.com/meysamhadeli/aifiles/utils"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// FileSelector expands glob patterns into the files an action applies to.
type FileSelector struct {
	Cwd          string
	UseGitignore bool
	gitIgnore    *utils.GitIgnore
}

// NewFileSelector initializes a new FileSelector rooted at cwd.
func NewFileSelector(cwd string, useGitignore bool) contracts.IFileSelector {
	selector := &FileSelector{
		Cwd:          filepath.Clean(cwd),
		UseGitignore: useGitignore,
	}
	if useGitignore {
		selector.gitIgnore = utils.NewGitIgnore(selector.Cwd)
	}
	return selector
}

// Select expands every pattern and returns the matching regular files, de-duplicated by absolute
// path in the order they were first seen. An invalid pattern fails the whole selection; a
// pattern matching nothing does not.
func (selector *FileSelector) Select(ctx context.Context, patterns []string) ([]models.FileTask, error) {
	logger := zerolog.Ctx(ctx)

	for _, pattern := range patterns {
		if err := validatePattern(pattern); err != nil {
			return nil, app_errors.New(app_errors.ErrSelection, pattern, err)
		}
	}

	seen := make(map[string]bool)
	var tasks []models.FileTask

	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matches, err := selector.expand(pattern)
		if err != nil {
			return nil, app_errors.New(app_errors.ErrSelection, pattern, err)
		}

		for _, match := range matches {
			if seen[match.abs] {
				continue
			}
			seen[match.abs] = true

			if utils.IsVCSPath(match.display) {
				continue
			}

			info, err := os.Stat(match.abs)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}

			if selector.gitIgnore != nil {
				ignored, rule, err := selector.gitIgnore.IsIgnored(match.abs)
				if err != nil {
					return nil, app_errors.New(app_errors.ErrSelection, match.display, err)
				}
				if ignored {
					logger.Debug().Str("path", match.display).Str("rule", rule).Msg("skipping ignored file")
					continue
				}
			}

			tasks = append(tasks, models.FileTask{
				Path:         match.abs,
				RelativePath: selector.relativePath(match.abs),
			})
		}
	}

	logger.Debug().Int("patterns", len(patterns)).Int("files", len(tasks)).Msg("selection complete")
	return tasks, nil
}

type globMatch struct {
	abs     string
	display string
}

// expand resolves relative patterns inside the working directory and everything else, absolute
// paths and patterns climbing out with "..", against the filesystem.
func (selector *FileSelector) expand(pattern string) ([]globMatch, error) {
	slashPattern := path.Clean(filepath.ToSlash(pattern))

	if !filepath.IsAbs(pattern) && !escapesRoot(slashPattern) {
		matches, err := doublestar.Glob(os.DirFS(selector.Cwd), slashPattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("expanding %q: %w", pattern, err)
		}

		result := make([]globMatch, 0, len(matches))
		for _, match := range matches {
			result = append(result, globMatch{
				abs:     filepath.Join(selector.Cwd, filepath.FromSlash(match)),
				display: match,
			})
		}
		return result, nil
	}

	full := pattern
	if !filepath.IsAbs(full) {
		full = filepath.Join(selector.Cwd, full)
	}
	matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("expanding %q: %w", pattern, err)
	}

	result := make([]globMatch, 0, len(matches))
	for _, match := range matches {
		abs, err := filepath.Abs(match)
		if err != nil {
			continue
		}
		result = append(result, globMatch{abs: abs, display: filepath.ToSlash(match)})
	}
	return result, nil
}

func (selector *FileSelector) relativePath(abs string) string {
	rel, err := filepath.Rel(selector.Cwd, abs)
	if err != nil || escapesRoot(filepath.ToSlash(rel)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func validatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return errors.New("empty pattern")
	}
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return errors.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	return nil
}

func escapesRoot(slashPath string) bool {
	return slashPath == ".." || strings.HasPrefix(slashPath, "../")
}
