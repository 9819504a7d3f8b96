package utils

import (
	"io"
	"path/filepath"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter renders text for a terminal using the lexer that matches a file name.
type Highlighter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewHighlighter resolves the lexer for filename once. Unknown file types and themes fall back to
// plain text and the default style.
func NewHighlighter(filename string, theme string) *Highlighter {
	lexer := lexers.Match(filepath.Base(filename))
	if lexer == nil {
		lexer = lexers.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	return &Highlighter{
		lexer:     chroma.Coalesce(lexer),
		style:     styles.Get(theme),
		formatter: formatter,
	}
}

// Language returns the name of the resolved lexer.
func (h *Highlighter) Language() string {
	return h.lexer.Config().Name
}

// Highlight writes content to w with terminal colors.
func (h *Highlighter) Highlight(w io.Writer, content string) error {
	iterator, err := h.lexer.Tokenise(nil, content)
	if err != nil {
		return err
	}
	return h.formatter.Format(w, h.style, iterator)
}
