package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/aifiles/app_errors"
	"github.com/meysamhadeli/aifiles/providers"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"
)

// Config represents the structure of the configuration file
type Config struct {
	Provider     string   `mapstructure:"provider" yaml:"provider"`
	ApiKey       string   `mapstructure:"api_key" yaml:"api_key"`
	Model        string   `mapstructure:"model" yaml:"model"`
	ApiBaseURL   string   `mapstructure:"api_base_url" yaml:"api_base_url,omitempty"`
	Temperature  *float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
	Stream       bool     `mapstructure:"stream" yaml:"stream"`
	Action       string   `mapstructure:"action" yaml:"action"`
	InPlace      bool     `mapstructure:"in_place" yaml:"in_place"`
	UseGitignore bool     `mapstructure:"use_gitignore" yaml:"use_gitignore"`
	Theme        string   `mapstructure:"theme" yaml:"theme"`

	// ConfigFile is the file the values were read from, empty when none was found.
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Provider:     providers.ProviderOpenAI,
	Model:        "gpt-4o-mini",
	Stream:       true,
	UseGitignore: true,
	Theme:        "dracula",
}

const (
	envPrefix      = "AIFILES"
	configBaseName = "aifiles-config"
	appDirName     = "aifiles"
)

// keys lists every configuration key so each one can be read from AIFILES_<KEY>.
var keys = []string{"provider", "api_key", "model", "api_base_url", "temperature", "stream", "action", "in_place", "use_gitignore", "theme"}

// LoadConfigs reads the configuration once at startup from the config file, the environment and
// the flags of rootCmd, in increasing order of precedence.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	cfgFile := ""
	if flag := lookupFlag(rootCmd, "config"); flag != nil {
		cfgFile = flag.Value.String()
	}
	explicit := cfgFile != ""
	if !explicit {
		cfgFile = findConfigFile(cwd)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType(GetConfigFileType(cfgFile))
		if err := v.ReadInConfig(); err != nil {
			return nil, app_errors.New(app_errors.ErrConfig, cfgFile, errors.Errorf("reading config file: %w", err))
		}
	}

	if err := bindFlags(v, rootCmd); err != nil {
		return nil, app_errors.New(app_errors.ErrConfig, "", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, app_errors.New(app_errors.ErrConfig, cfgFile, errors.Errorf("unable to decode into struct: %w", err))
	}
	config.ConfigFile = cfgFile
	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))

	return &config, nil
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", DefaultConfig.Provider)
	v.SetDefault("api_key", "")
	v.SetDefault("model", DefaultConfig.Model)
	v.SetDefault("api_base_url", "")
	v.SetDefault("stream", DefaultConfig.Stream)
	v.SetDefault("action", "")
	v.SetDefault("in_place", false)
	v.SetDefault("use_gitignore", DefaultConfig.UseGitignore)
	v.SetDefault("theme", DefaultConfig.Theme)
}

// bindEnv binds the OpenAI variables and AIFILES_<KEY> for every key.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	_ = v.BindEnv("api_key", "OPENAI_API_KEY", "AIFILES_API_KEY")
	_ = v.BindEnv("model", "OPENAI_MODEL", "AIFILES_MODEL")
	_ = v.BindEnv("api_base_url", "OPENAI_BASE_URL", "AIFILES_API_BASE_URL")
}

// bindFlags binds the CLI flags to configuration values. Only flags the user set override
// lower-precedence sources.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) error {
	bindings := map[string]string{
		"action":       "action",
		"in-place":     "in_place",
		"model":        "model",
		"api-base-url": "api_base_url",
		"provider":     "provider",
		"theme":        "theme",
	}
	for name, key := range bindings {
		flag := lookupFlag(rootCmd, name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Errorf("binding flag %s: %w", name, err)
		}
	}

	if flag := lookupFlag(rootCmd, "no-gitignore"); flag != nil && flag.Changed && flag.Value.String() == "true" {
		v.Set("use_gitignore", false)
	}
	if flag := lookupFlag(rootCmd, "temperature"); flag != nil && flag.Changed {
		v.Set("temperature", flag.Value.String())
	}

	return nil
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if cmd == nil {
		return nil
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag
	}
	return cmd.InheritedFlags().Lookup(name)
}

// findConfigFile looks in the working directory first, then in the XDG config directory. The
// aifiles-specific names win over the plain config.yaml accepted in both places.
func findConfigFile(cwd string) string {
	candidates := []string{
		filepath.Join(cwd, configBaseName+".yaml"),
		filepath.Join(cwd, configBaseName+".yml"),
		filepath.Join(cwd, "config.yaml"),
	}

	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdgConfigHome = filepath.Join(home, ".config")
		}
	}
	if xdgConfigHome != "" {
		candidates = append(candidates,
			filepath.Join(xdgConfigHome, appDirName, "config.yaml"),
			filepath.Join(xdgConfigHome, appDirName, "config.yml"),
			filepath.Join(xdgConfigHome, "config.yaml"),
		)
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// InitFlags initializes the configuration flags on the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file (default: ./aifiles-config.yaml, then $XDG_CONFIG_HOME/aifiles/config.yaml).")
	rootCmd.PersistentFlags().StringP("action", "a", "", "The instruction sent to the model together with each file (e.g. 'Summarize this text').")
	rootCmd.PersistentFlags().BoolP("in-place", "i", false, "Overwrite each file with the model response instead of printing it.")
	rootCmd.PersistentFlags().StringP("model", "m", "", "The chat model to use, such as 'gpt-4o-mini'.")
	rootCmd.PersistentFlags().StringP("api-base-url", "u", "", "A custom base URL for the chat completion API.")
	rootCmd.PersistentFlags().String("provider", "", "The AI provider: 'openai' (default) or 'ollama'.")
	rootCmd.PersistentFlags().String("theme", "", "The highlighting theme for terminal output (e.g. 'dracula', 'monokai').")
	rootCmd.PersistentFlags().Float64("temperature", 0, "Sampling temperature between 0 and 2.")
	rootCmd.PersistentFlags().Bool("no-gitignore", false, "Do not filter files through .gitignore rules.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	}
	return "yaml"
}

// ProviderConfig returns the part of the configuration the chat provider needs.
func (c *Config) ProviderConfig() *providers.AIProviderConfig {
	return &providers.AIProviderConfig{
		Provider:    c.Provider,
		BaseURL:     c.ApiBaseURL,
		Model:       c.Model,
		ApiKey:      c.ApiKey,
		Temperature: c.Temperature,
		Stream:      c.Stream,
	}
}

// Redacted returns a copy that is safe to print.
func (c *Config) Redacted() Config {
	redacted := *c
	if len(redacted.ApiKey) > 8 {
		redacted.ApiKey = redacted.ApiKey[:3] + "..." + redacted.ApiKey[len(redacted.ApiKey)-4:]
	} else if redacted.ApiKey != "" {
		redacted.ApiKey = "***"
	}
	return redacted
}
