package output_writer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/aifiles/action_runner/models"
	"github.com/meysamhadeli/aifiles/app_errors"
	"github.com/meysamhadeli/aifiles/constants/lipgloss"
	selector_models "github.com/meysamhadeli/aifiles/file_selector/models"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"
	"gitlab.com/tozd/go/errors"
)

// ConfirmFunc asks the user whether a file may be overwritten.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

// InPlaceWriter replaces each file with exactly the model response.
type InPlaceWriter struct {
	out     io.Writer
	confirm ConfirmFunc
}

type InPlaceOption func(*InPlaceWriter)

// WithConfirm asks before every write.
func WithConfirm(confirm ConfirmFunc) InPlaceOption {
	return func(w *InPlaceWriter) {
		w.confirm = confirm
	}
}

// NewInPlaceWriter creates a writer that reports updated files on out.
func NewInPlaceWriter(out io.Writer, opts ...InPlaceOption) *InPlaceWriter {
	w := &InPlaceWriter{out: out}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *InPlaceWriter) Begin(context.Context, selector_models.FileTask) error {
	return nil
}

// WriteChunk does nothing; the file is only written once the whole response is known.
func (w *InPlaceWriter) WriteChunk(selector_models.FileTask, string) error {
	return nil
}

// Complete writes the response over the file unless the file changed since it was read, the
// response is identical to the current content, or the user declines.
func (w *InPlaceWriter) Complete(ctx context.Context, result models.ActionResult) (models.Outcome, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(result.Path)
	if err != nil {
		return models.OutcomeFailed, app_errors.New(app_errors.ErrWrite, result.RelativePath, err)
	}
	current, err := os.ReadFile(result.Path)
	if err != nil {
		return models.OutcomeFailed, app_errors.New(app_errors.ErrWrite, result.RelativePath, err)
	}
	if xxh3.Hash(current) != result.SourceHash {
		return models.OutcomeFailed, app_errors.New(app_errors.ErrWrite, result.RelativePath, errors.New("file changed since it was read, not overwriting"))
	}

	if string(current) == result.OutputText {
		fmt.Fprintln(w.out, lipgloss.Gray.Render(fmt.Sprintf("Unchanged file: %s", result.RelativePath)))
		return models.OutcomeUnchanged, nil
	}

	if w.confirm != nil {
		ok, err := w.confirm(ctx, fmt.Sprintf("Overwrite %s?", result.RelativePath))
		if err != nil {
			return models.OutcomeFailed, app_errors.New(app_errors.ErrWrite, result.RelativePath, err)
		}
		if !ok {
			fmt.Fprintln(w.out, lipgloss.Yellow.Render(fmt.Sprintf("Skipped file: %s", result.RelativePath)))
			return models.OutcomeDeclined, nil
		}
	}

	regressed, err := SyntaxRegressed(ctx, result.Path, current, []byte(result.OutputText))
	if err != nil {
		logger.Debug().Err(err).Str("path", result.RelativePath).Msg("syntax check skipped")
	} else if regressed {
		logger.Warn().Str("path", result.RelativePath).Msg("new content has syntax errors the original did not have")
	}

	if err := writeFileAtomic(result.Path, []byte(result.OutputText), info.Mode().Perm()); err != nil {
		return models.OutcomeFailed, app_errors.New(app_errors.ErrWrite, result.RelativePath, err)
	}

	fmt.Fprintln(w.out, lipgloss.Green.Render(fmt.Sprintf("Updated file: %s", result.RelativePath)))
	return models.OutcomeUpdated, nil
}

// writeFileAtomic writes to a temporary file next to path and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, "."+base+".tmp.*")
	if err != nil {
		return errors.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Errorf("writing temporary file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return errors.Errorf("setting permissions: %w", err)
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Errorf("replacing file: %w", err)
	}
	return nil
}
