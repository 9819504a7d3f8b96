package action_runner

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/meysamhadeli/aifiles/action_runner/models"
	"github.com/meysamhadeli/aifiles/app_errors"
	selector_models "github.com/meysamhadeli/aifiles/file_selector/models"
	writer_contracts "github.com/meysamhadeli/aifiles/output_writer/contracts"
	"github.com/meysamhadeli/aifiles/providers/contracts"
	provider_models "github.com/meysamhadeli/aifiles/providers/models"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"
	"gitlab.com/tozd/go/errors"
)

// ActionRunner applies one action to a list of files, one file at a time.
type ActionRunner struct {
	Action   string
	InPlace  bool
	provider contracts.IChatAIProvider
	writer   writer_contracts.IOutputWriter
	progress Progress
}

type Option func(*ActionRunner)

// WithProgress shows progress while a request is in flight.
func WithProgress(progress Progress) Option {
	return func(runner *ActionRunner) {
		if progress != nil {
			runner.progress = progress
		}
	}
}

// NewActionRunner initializes a new ActionRunner.
func NewActionRunner(action string, inPlace bool, provider contracts.IChatAIProvider, writer writer_contracts.IOutputWriter, opts ...Option) *ActionRunner {
	runner := &ActionRunner{
		Action:   action,
		InPlace:  inPlace,
		provider: provider,
		writer:   writer,
		progress: noopProgress{},
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run processes the tasks in order. A failing file is logged and recorded and the run moves on;
// cancelling ctx stops the run before the next file and marks the summary as interrupted.
func (runner *ActionRunner) Run(ctx context.Context, tasks []selector_models.FileTask) *models.RunSummary {
	logger := zerolog.Ctx(ctx)
	summary := &models.RunSummary{}

	for _, task := range tasks {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		outcome, err := runner.Process(ctx, task)
		if err != nil {
			summary.Files = append(summary.Files, models.FileOutcome{Path: task.RelativePath, Outcome: models.OutcomeFailed, Err: err})
			if ctx.Err() != nil {
				summary.Interrupted = true
				break
			}
			logger.Error().Err(err).Str("path", task.RelativePath).Msg("failed to process file")
			continue
		}

		logger.Debug().Str("path", task.RelativePath).Str("outcome", string(outcome)).Msg("processed file")
		summary.Files = append(summary.Files, models.FileOutcome{Path: task.RelativePath, Outcome: outcome})
	}

	return summary
}

// Process runs the action on a single file. Returned errors are tagged with app_errors.ErrRead,
// app_errors.ErrAPI or app_errors.ErrWrite.
func (runner *ActionRunner) Process(ctx context.Context, task selector_models.FileTask) (models.Outcome, error) {
	content, err := os.ReadFile(task.Path)
	if err != nil {
		return models.OutcomeFailed, app_errors.New(app_errors.ErrRead, task.RelativePath, err)
	}
	if !utf8.Valid(content) {
		return models.OutcomeFailed, app_errors.New(app_errors.ErrRead, task.RelativePath, errors.New("file is not valid UTF-8 text"))
	}

	request := models.ActionRequest{FileContent: string(content), Action: runner.Action}
	systemPrompt, userPrompt := GeneratePrompt(request, runner.InPlace)

	if err := runner.writer.Begin(ctx, task); err != nil {
		return models.OutcomeFailed, app_errors.New(app_errors.ErrWrite, task.RelativePath, err)
	}

	output, err := runner.request(ctx, task, userPrompt, systemPrompt)
	if err != nil {
		return models.OutcomeFailed, err
	}

	result := models.ActionResult{
		Path:         task.Path,
		RelativePath: task.RelativePath,
		OutputText:   output,
		SourceHash:   xxh3.Hash(content),
	}

	outcome, err := runner.writer.Complete(ctx, result)
	if err != nil {
		if app_errors.KindOf(err) == nil {
			err = app_errors.New(app_errors.ErrWrite, task.RelativePath, err)
		}
		return models.OutcomeFailed, err
	}
	return outcome, nil
}

// request sends one chat completion and streams the chunks to the writer. There is no retry.
func (runner *ActionRunner) request(ctx context.Context, task selector_models.FileTask, userPrompt, systemPrompt string) (string, error) {
	runner.progress.Start("Processing " + task.RelativePath + "...")
	stopped := false
	stop := func() {
		if !stopped {
			runner.progress.Stop()
			stopped = true
		}
	}
	defer stop()

	var outputBuilder strings.Builder
	responseChan := runner.provider.ChatCompletionRequest(ctx, userPrompt, systemPrompt)

	for response := range responseChan {
		stop()

		if response.Err != nil {
			drain(responseChan)
			return "", app_errors.New(app_errors.ErrAPI, task.RelativePath, response.Err)
		}

		if response.Content != "" {
			outputBuilder.WriteString(response.Content)
			if err := runner.writer.WriteChunk(task, response.Content); err != nil {
				drain(responseChan)
				return "", app_errors.New(app_errors.ErrWrite, task.RelativePath, err)
			}
		}

		if response.Done {
			drain(responseChan)
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return "", app_errors.New(app_errors.ErrAPI, task.RelativePath, err)
	}

	return outputBuilder.String(), nil
}

// drain lets the provider goroutine finish and close the channel.
func drain(responseChan <-chan provider_models.StreamResponse) {
	for range responseChan {
	}
}
