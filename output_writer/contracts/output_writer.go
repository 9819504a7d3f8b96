package contracts

import (
	"context"

	runner_models "github.com/meysamhadeli/aifiles/action_runner/models"
	"github.com/meysamhadeli/aifiles/file_selector/models"
)

// IOutputWriter disposes of each result before the next file is processed.
type IOutputWriter interface {
	// Begin is called before the request for task is sent.
	Begin(ctx context.Context, task models.FileTask) error
	// WriteChunk receives response text as it streams in.
	WriteChunk(task models.FileTask, chunk string) error
	// Complete receives the full response once the stream has ended.
	Complete(ctx context.Context, result runner_models.ActionResult) (runner_models.Outcome, error)
}
