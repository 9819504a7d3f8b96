package models

import "github.com/meysamhadeli/aifiles/app_errors"

// ActionRequest is what gets sent to the model for one file.
type ActionRequest struct {
	FileContent string
	Action      string
}

// ActionResult is the model response for one file.
type ActionResult struct {
	Path         string
	RelativePath string
	OutputText   string
	// SourceHash is the xxh3 hash of the content that was sent.
	SourceHash uint64
}

// Outcome describes what happened to a processed file.
type Outcome string

const (
	OutcomePrinted   Outcome = "printed"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeDeclined  Outcome = "declined"
	OutcomeFailed    Outcome = "failed"
)

type FileOutcome struct {
	Path    string
	Outcome Outcome
	Err     error
}

// RunSummary collects the outcome of every processed file.
type RunSummary struct {
	Files       []FileOutcome
	Interrupted bool
}

// Succeeded counts the files that did not fail.
func (s *RunSummary) Succeeded() int {
	count := 0
	for _, file := range s.Files {
		if file.Outcome != OutcomeFailed {
			count++
		}
	}
	return count
}

// Failures returns the failed files.
func (s *RunSummary) Failures() []FileOutcome {
	var failures []FileOutcome
	for _, file := range s.Files {
		if file.Outcome == OutcomeFailed {
			failures = append(failures, file)
		}
	}
	return failures
}

// CountByKind counts failures of the given error kind, such as app_errors.ErrAPI.
func (s *RunSummary) CountByKind(kind error) int {
	count := 0
	for _, failure := range s.Failures() {
		if app_errors.KindOf(failure.Err) == kind {
			count++
		}
	}
	return count
}
