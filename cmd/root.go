package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meysamhadeli/aifiles/config"
	"github.com/meysamhadeli/aifiles/constants/lipgloss"
	"github.com/meysamhadeli/aifiles/providers"
	"github.com/meysamhadeli/aifiles/token_management"
	contracts_token "github.com/meysamhadeli/aifiles/token_management/contracts"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gitlab.com/tozd/go/errors"
)

// version is set at build time with -ldflags "-X github.com/meysamhadeli/aifiles/cmd.version=..."
var version = "dev"

// ErrInterrupted is returned when a signal stopped the run before every file was processed.
var ErrInterrupted = errors.Base("interrupted")

type RootDependencies struct {
	Config          *config.Config
	Cwd             string
	TokenManagement contracts_token.ITokenManagement
	ProviderFactory providers.ChatProviderFactory
	Interactive     bool
	Dry             bool
}

type rootOptions struct {
	providerFactory providers.ChatProviderFactory
	isTerminal      func(w any) bool
}

type RootOption func(*rootOptions)

// WithProviderFactory replaces the factory that builds the chat provider.
func WithProviderFactory(factory providers.ChatProviderFactory) RootOption {
	return func(o *rootOptions) {
		o.providerFactory = factory
	}
}

// NewRootCmd builds the aifiles command tree.
func NewRootCmd(opts ...RootOption) *cobra.Command {
	options := &rootOptions{
		providerFactory: providers.NewChatProvider,
		isTerminal:      isTerminal,
	}
	for _, opt := range opts {
		opt(options)
	}

	rootCmd := &cobra.Command{
		Use:   "aifiles [flags] <pattern>...",
		Short: "Apply an AI action to every file matching a glob pattern.",
		Long: `aifiles sends the content of every file matching the given glob patterns to a chat model,
together with an action such as "Summarize this text" or "Fix spelling mistakes".
Responses are printed to stdout, written back over the files with --in-place, or
only listed with --dry. Files ignored by .gitignore are skipped.`,
		Example: `  aifiles -a "Summarize this text" "docs/*.md"
  aifiles -i -a "Add doc comments to exported functions" "**/*.go"
  aifiles --dry -a "Translate to French" "content/**/*.txt"`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDependencies, err := handleRootCommand(cmd, options)
			if err != nil {
				return err
			}
			return handleApplyCommand(cmd, rootDependencies, options, args)
		},
	}

	config.InitFlags(rootCmd)
	rootCmd.Flags().BoolP("dry", "n", false, "Only list the files that would be processed; no API call, no write.")
	rootCmd.Flags().Bool("interactive", false, "Ask before overwriting each file in --in-place mode.")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging.")

	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// handleRootCommand loads and validates the configuration and attaches the logger to the
// command context.
func handleRootCommand(cmd *cobra.Command, options *rootOptions) (*RootDependencies, error) {
	ctx := withLogger(cmd)

	dry, _ := cmd.Flags().GetBool("dry")
	interactive, _ := cmd.Flags().GetBool("interactive")

	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Errorf("error getting current directory: %w", err)
	}

	cfg, err := config.LoadConfigs(cmd, cwd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(!dry); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Str("config_file", cfg.ConfigFile).
		Bool("in_place", cfg.InPlace).
		Bool("dry", dry).
		Msg("configuration loaded")

	return &RootDependencies{
		Config:          cfg,
		Cwd:             cwd,
		TokenManagement: token_management.NewTokenManager(cmd.ErrOrStderr()),
		ProviderFactory: options.providerFactory,
		Interactive:     interactive,
		Dry:             dry,
	}, nil
}

// withLogger builds the console logger on stderr and stores it in the command context.
func withLogger(cmd *cobra.Command) context.Context {
	debug, _ := cmd.Flags().GetBool("debug")
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)
	return ctx
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Execute runs the root command. SIGINT and SIGTERM cancel the context; the in-flight request is
// aborted and no further file is processed.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := NewRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, lipgloss.Red.Render(fmt.Sprintf("Error: %v", err)))
}
