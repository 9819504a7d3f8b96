package action_runner

import (
	"io"
	"sync"

	"github.com/pterm/pterm"
)

// Progress is shown while waiting for the first chunk of a response.
type Progress interface {
	Start(message string)
	Stop()
}

type noopProgress struct{}

func (noopProgress) Start(string) {}
func (noopProgress) Stop()        {}

// SpinnerProgress renders a pterm spinner on w.
type SpinnerProgress struct {
	writer  io.Writer
	mu      sync.Mutex
	spinner *pterm.SpinnerPrinter
}

// NewSpinnerProgress creates a spinner that writes to w, usually stderr.
func NewSpinnerProgress(w io.Writer) *SpinnerProgress {
	return &SpinnerProgress{writer: w}
}

func (p *SpinnerProgress) Start(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.spinner != nil {
		return
	}
	spinner, err := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).
		WithRemoveWhenDone(true).
		WithWriter(p.writer).
		Start(message)
	if err != nil {
		return
	}
	p.spinner = spinner
}

func (p *SpinnerProgress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.spinner == nil {
		return
	}
	_ = p.spinner.Stop()
	p.spinner = nil
}
