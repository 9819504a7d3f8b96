package token_management

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/meysamhadeli/aifiles/constants/lipgloss"
	"github.com/meysamhadeli/aifiles/embed_data"
	"github.com/meysamhadeli/aifiles/token_management/contracts"
	"gitlab.com/tozd/go/errors"
)

// TokenManager implementation
type tokenManager struct {
	out             io.Writer
	mu              sync.Mutex
	usedToken       int
	usedInputToken  int
	usedOutputToken int
}

type details struct {
	MaxTokens                      int     `json:"max_tokens"`
	MaxInputTokens                 int     `json:"max_input_tokens"`
	MaxOutputTokens                int     `json:"max_output_tokens"`
	InputCostPerMillionTokens      float64 `json:"input_cost_per_million_tokens,omitempty"`
	OutputCostPerMillionTokens     float64 `json:"output_cost_per_million_tokens,omitempty"`
	CacheReadInputMillionTokenCost float64 `json:"cache_read_input_million_token_cost,omitempty"`
	Mode                           string  `json:"mode"`
	SupportsFunctionCalling        bool    `json:"supports_function_calling,omitempty"`
}

type Models struct {
	ModelDetails map[string]details `json:"models"`
}

var (
	modelsOnce   sync.Once
	loadedModels Models
	loadErr      error
)

// NewTokenManager creates a new token manager that prints usage to out.
func NewTokenManager(out io.Writer) contracts.ITokenManagement {
	return &tokenManager{out: out}
}

// UsedTokens accumulates the token count for the run.
func (tm *tokenManager) UsedTokens(inputToken int, outputToken int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.usedInputToken += inputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
}

func (tm *tokenManager) DisplayTokens(chatProviderName string, chatModel string) {
	total, input, output := tm.GetCurrentTokenUsage()

	cost := tm.CalculateCost(chatProviderName, chatModel, input, output)

	tokenInfo := fmt.Sprintf("Token Used: %d - Cost: %.6f $ - Chat Model: %s", total, cost, chatModel)

	fmt.Fprintln(tm.out, lipgloss.BoxStyle.Render(tokenInfo))
}

func (tm *tokenManager) GetCurrentTokenUsage() (total int, input int, output int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	return tm.usedToken, tm.usedInputToken, tm.usedOutputToken
}

func (tm *tokenManager) CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64 {
	modelDetails, err := getModelDetails(providerName, modelName)
	if err != nil {
		return 0
	}

	inputCost := float64(inputToken) * modelDetails.InputCostPerMillionTokens / 1000000.0
	outputCost := float64(outputToken) * modelDetails.OutputCostPerMillionTokens / 1000000.0

	return inputCost + outputCost
}

func getModelDetails(providerName string, modelName string) (details, error) {
	modelsOnce.Do(func() {
		loadedModels = Models{ModelDetails: make(map[string]details)}
		if err := json.Unmarshal(embed_data.ModelDetails, &loadedModels); err != nil {
			loadErr = errors.Errorf("unmarshaling model details: %w", err)
		}
	})
	if loadErr != nil {
		return details{}, loadErr
	}

	providerName = strings.ToLower(providerName)
	modelName = strings.ToLower(modelName)

	model, exists := loadedModels.ModelDetails[modelName]
	if !exists {
		return details{}, errors.Errorf("model details price with name '%s' not found for provider '%s'", modelName, providerName)
	}

	return model, nil
}
