package output_writer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/aifiles/action_runner/models"
	"github.com/meysamhadeli/aifiles/constants/lipgloss"
	selector_models "github.com/meysamhadeli/aifiles/file_selector/models"
	"github.com/meysamhadeli/aifiles/utils"
)

// StdoutWriter prints each response under a header naming its file.
type StdoutWriter struct {
	out       io.Writer
	highlight bool
	theme     string

	highlighter *utils.Highlighter
	lastChunk   string
}

// NewStdoutWriter creates a writer for out. When highlight is set, responses are colored with
// the lexer matching each file's extension.
func NewStdoutWriter(out io.Writer, highlight bool, theme string) *StdoutWriter {
	return &StdoutWriter{out: out, highlight: highlight, theme: theme}
}

func (w *StdoutWriter) Begin(_ context.Context, task selector_models.FileTask) error {
	w.lastChunk = ""
	w.highlighter = nil
	if w.highlight {
		w.highlighter = utils.NewHighlighter(task.Path, w.theme)
	}

	_, err := fmt.Fprintln(w.out, lipgloss.Info.Render(fmt.Sprintf("Output for %s:", task.RelativePath)))
	return err
}

func (w *StdoutWriter) WriteChunk(_ selector_models.FileTask, chunk string) error {
	w.lastChunk = chunk
	if w.highlighter != nil {
		if err := w.highlighter.Highlight(w.out, chunk); err == nil {
			return nil
		}
	}
	_, err := io.WriteString(w.out, chunk)
	return err
}

func (w *StdoutWriter) Complete(_ context.Context, _ models.ActionResult) (models.Outcome, error) {
	if !strings.HasSuffix(w.lastChunk, "\n") {
		if _, err := fmt.Fprintln(w.out); err != nil {
			return models.OutcomeFailed, err
		}
	}
	return models.OutcomePrinted, nil
}
