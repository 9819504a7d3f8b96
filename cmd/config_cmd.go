package cmd

import (
	"fmt"
	"os"

	"github.com/meysamhadeli/aifiles/config"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// newConfigCmd: aifiles config
func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML, with the API key redacted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			withLogger(cmd)

			cwd, err := os.Getwd()
			if err != nil {
				return errors.Errorf("error getting current directory: %w", err)
			}

			cfg, err := config.LoadConfigs(cmd, cwd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.ConfigFile != "" {
				fmt.Fprintf(out, "# loaded from %s\n", cfg.ConfigFile)
			} else {
				fmt.Fprintln(out, "# no config file found, using environment and defaults")
			}

			encoder := yaml.NewEncoder(out)
			encoder.SetIndent(2)
			if err := encoder.Encode(cfg.Redacted()); err != nil {
				return errors.Errorf("encoding configuration: %w", err)
			}
			return encoder.Close()
		},
	}
}
