package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/meysamhadeli/aifiles/action_runner"
	"github.com/meysamhadeli/aifiles/action_runner/models"
	"github.com/meysamhadeli/aifiles/app_errors"
	"github.com/meysamhadeli/aifiles/constants/lipgloss"
	"github.com/meysamhadeli/aifiles/file_selector"
	selector_models "github.com/meysamhadeli/aifiles/file_selector/models"
	"github.com/meysamhadeli/aifiles/output_writer"
	writer_contracts "github.com/meysamhadeli/aifiles/output_writer/contracts"
	"github.com/meysamhadeli/aifiles/utils"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// handleApplyCommand selects the files, then lists them (dry run) or runs the action over them.
func handleApplyCommand(cmd *cobra.Command, rootDependencies *RootDependencies, options *rootOptions, patterns []string) error {
	ctx := cmd.Context()
	cfg := rootDependencies.Config
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	selector := file_selector.NewFileSelector(rootDependencies.Cwd, cfg.UseGitignore)
	tasks, err := selector.Select(ctx, patterns)
	if err != nil {
		if ctx.Err() != nil {
			return ErrInterrupted
		}
		return err
	}

	if len(tasks) == 0 {
		fmt.Fprintln(errOut, lipgloss.Yellow.Render("No files matched"))
		return nil
	}

	mode := output_writer.ResolveMode(cfg.InPlace, rootDependencies.Dry)
	if mode == output_writer.ModeDryRun {
		return output_writer.ListDryRun(out, tasks)
	}

	if mode == output_writer.ModeInPlace {
		warnUncommittedChanges(ctx, rootDependencies.Cwd, tasks)
	}

	provider, err := rootDependencies.ProviderFactory(cfg.ProviderConfig(), rootDependencies.TokenManagement)
	if err != nil {
		return app_errors.New(app_errors.ErrConfig, "", err)
	}

	writer := newOutputWriter(cmd, rootDependencies, options, mode)

	var runnerOptions []action_runner.Option
	if options.isTerminal(errOut) {
		runnerOptions = append(runnerOptions, action_runner.WithProgress(action_runner.NewSpinnerProgress(errOut)))
	}

	runner := action_runner.NewActionRunner(cfg.Action, mode == output_writer.ModeInPlace, provider, writer, runnerOptions...)
	summary := runner.Run(ctx, tasks)

	printSummary(errOut, summary)

	if total, _, _ := rootDependencies.TokenManagement.GetCurrentTokenUsage(); total > 0 {
		rootDependencies.TokenManagement.DisplayTokens(cfg.Provider, cfg.Model)
	}

	if summary.Interrupted {
		return ErrInterrupted
	}
	return nil
}

func newOutputWriter(cmd *cobra.Command, rootDependencies *RootDependencies, options *rootOptions, mode output_writer.Mode) writer_contracts.IOutputWriter {
	out := cmd.OutOrStdout()

	if mode != output_writer.ModeInPlace {
		return output_writer.NewStdoutWriter(out, options.isTerminal(out), rootDependencies.Config.Theme)
	}

	var writerOptions []output_writer.InPlaceOption
	if rootDependencies.Interactive {
		reader := bufio.NewReader(cmd.InOrStdin())
		errOut := cmd.ErrOrStderr()
		writerOptions = append(writerOptions, output_writer.WithConfirm(func(ctx context.Context, question string) (bool, error) {
			return utils.ConfirmPrompt(ctx, reader, errOut, question)
		}))
	}
	return output_writer.NewInPlaceWriter(out, writerOptions...)
}

// warnUncommittedChanges logs a warning when in-place edits cannot be undone through git.
func warnUncommittedChanges(ctx context.Context, cwd string, tasks []selector_models.FileTask) {
	logger := zerolog.Ctx(ctx)
	gitOperations := utils.NewGitOperations(cwd)

	if err := gitOperations.CheckGitRepo(ctx); err != nil {
		logger.Warn().Msg("working directory is not a git repository; in-place changes cannot be reverted with git")
		return
	}

	paths := make([]string, 0, len(tasks))
	for _, task := range tasks {
		paths = append(paths, task.Path)
	}
	changed, err := gitOperations.UncommittedFiles(ctx, paths)
	if err != nil {
		logger.Debug().Err(err).Msg("could not check git status")
		return
	}
	for _, path := range changed {
		logger.Warn().Str("path", path).Msg("file has uncommitted changes that will be overwritten")
	}
}

func printSummary(w io.Writer, summary *models.RunSummary) {
	failures := summary.Failures()
	line := fmt.Sprintf("Processed %d file(s): %d succeeded, %d failed", len(summary.Files), summary.Succeeded(), len(failures))

	switch {
	case summary.Interrupted:
		fmt.Fprintln(w, lipgloss.Red.Render(line+" (interrupted)"))
	case len(failures) > 0:
		fmt.Fprintln(w, lipgloss.Yellow.Render(line))
		for _, failure := range failures {
			fmt.Fprintln(w, lipgloss.Gray.Render(fmt.Sprintf("  %s: %v", failure.Path, failure.Err)))
		}
	default:
		fmt.Fprintln(w, lipgloss.Green.Render(line))
	}
}
