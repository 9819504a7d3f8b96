package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/meysamhadeli/aifiles/app_errors"
	"github.com/meysamhadeli/aifiles/providers"
)

// Validate checks the loaded configuration. Credentials are only required when requests will
// actually be sent, so a dry run works without an API key.
func (c *Config) Validate(requireCredentials bool) error {
	err := criterio.ValidateStruct(
		criterio.Run("action", c.Action, notBlank),
		criterio.Run("model", c.Model, notBlank),
		criterio.Run("provider", c.Provider, supportedProvider),
		c.validateApiKey(requireCredentials),
		criterio.Run("api_base_url", c.ApiBaseURL, httpURL),
		criterio.Run("temperature", c.Temperature, temperatureRange),
	)
	if err != nil {
		return app_errors.New(app_errors.ErrConfig, "", err)
	}
	return nil
}

func (c *Config) validateApiKey(requireCredentials bool) error {
	if !requireCredentials || c.Provider != providers.ProviderOpenAI {
		return nil
	}
	if strings.TrimSpace(c.ApiKey) == "" {
		return criterio.NewFieldErrors("api_key", fmt.Errorf("is required; set OPENAI_API_KEY or api_key in the config file"))
	}
	return nil
}

func notBlank(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

func supportedProvider(name string) error {
	switch name {
	case providers.ProviderOpenAI, providers.ProviderOllama:
		return nil
	default:
		return fmt.Errorf("unsupported provider %q", name)
	}
}

// httpURL accepts an empty value, which means the provider default.
func httpURL(value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) url, got %q", value)
	}
	return nil
}

func temperatureRange(value *float64) error {
	if value == nil {
		return nil
	}
	if *value < 0 || *value > 2 {
		return fmt.Errorf("must be between 0 and 2, got %v", *value)
	}
	return nil
}
