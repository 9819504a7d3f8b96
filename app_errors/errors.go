package app_errors

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// Error kinds. Config and selection errors abort the run, the rest are reported per file.
var (
	ErrConfig    = errors.Base("config error")
	ErrSelection = errors.Base("selection error")
	ErrRead      = errors.Base("read error")
	ErrAPI       = errors.Base("api error")
	ErrWrite     = errors.Base("write error")
)

var kinds = []error{ErrConfig, ErrSelection, ErrRead, ErrAPI, ErrWrite}

// Error tags a cause with one of the kinds above and, for per-file failures, the path involved.
type Error struct {
	Kind error
	Path string
	Err  error
}

// New creates a kind-tagged error. Path may be empty.
func New(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Path == "" && e.Err == nil:
		return e.Kind.Error()
	case e.Path == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
}

// Unwrap exposes both the kind and the cause so errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the kind an error was tagged with, or nil.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfig) || errors.Is(err, ErrSelection)
}
