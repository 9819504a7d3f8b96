package providers

import (
	"github.com/meysamhadeli/aifiles/providers/contracts"
	"github.com/meysamhadeli/aifiles/providers/ollama"
	"github.com/meysamhadeli/aifiles/providers/openai"
	contracts_token "github.com/meysamhadeli/aifiles/token_management/contracts"
	"gitlab.com/tozd/go/errors"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// AIProviderConfig is the part of the configuration a chat provider needs.
type AIProviderConfig struct {
	Provider    string
	BaseURL     string
	Model       string
	ApiKey      string
	Temperature *float64
	Stream      bool
}

// ChatProviderFactory builds a chat provider from the configuration.
type ChatProviderFactory func(config *AIProviderConfig, tokenManagement contracts_token.ITokenManagement) (contracts.IChatAIProvider, error)

// NewChatProvider is the default ChatProviderFactory.
func NewChatProvider(config *AIProviderConfig, tokenManagement contracts_token.ITokenManagement) (contracts.IChatAIProvider, error) {
	switch config.Provider {
	case ProviderOpenAI:
		return openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			ApiKey:          config.ApiKey,
			Temperature:     config.Temperature,
			Stream:          config.Stream,
			TokenManagement: tokenManagement,
		}), nil
	case ProviderOllama:
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			Stream:          config.Stream,
			TokenManagement: tokenManagement,
		}), nil
	default:
		return nil, errors.Errorf("provider '%s' is not supported", config.Provider)
	}
}
