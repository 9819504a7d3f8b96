package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/meysamhadeli/aifiles/providers/contracts"
	"github.com/meysamhadeli/aifiles/providers/models"
	ollama_models "github.com/meysamhadeli/aifiles/providers/ollama/models"
	contracts_token "github.com/meysamhadeli/aifiles/token_management/contracts"
	"gitlab.com/tozd/go/errors"
)

// OllamaConfig implements IChatAIProvider for a local Ollama server.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float64
	Stream          bool
	TokenManagement contracts_token.ITokenManagement
	Client          *http.Client
}

const (
	defaultBaseURL = "http://localhost:11434/api"
)

// NewOllamaChatProvider initializes a new Ollama chat provider.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	// Set default BaseURL if empty
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := config.Client
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaConfig{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		Model:           config.Model,
		Temperature:     config.Temperature,
		Stream:          config.Stream,
		TokenManagement: config.TokenManagement,
		Client:          client,
	}
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)
	var markdownBuffer strings.Builder // Buffer to accumulate content until newline

	go func() {
		defer close(responseChan)

		reqBody := ollama_models.OllamaChatCompletionRequest{
			Model: ollamaProvider.Model,
			Messages: []ollama_models.Message{
				{Role: "system", Content: prompt},
				{Role: "user", Content: userInput},
			},
			Stream: ollamaProvider.Stream,
		}
		if ollamaProvider.Temperature != nil {
			reqBody.Options = &ollama_models.Options{Temperature: ollamaProvider.Temperature}
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			responseChan <- models.StreamResponse{Err: errors.Errorf("error marshalling request body: %w", err)}
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ollamaProvider.BaseURL+"/chat", bytes.NewBuffer(jsonData))
		if err != nil {
			responseChan <- models.StreamResponse{Err: errors.Errorf("error creating request: %w", err)}
			return
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := ollamaProvider.Client.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				responseChan <- models.StreamResponse{Err: errors.Errorf("request canceled: %w", err)}
				return
			}
			responseChan <- models.StreamResponse{Err: errors.Errorf("error sending request: %w", err)}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)

			var apiError ollama_models.OllamaChatCompletionResponse
			if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error == "" {
				responseChan <- models.StreamResponse{Err: errors.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, strings.TrimSpace(string(body)))}
				return
			}

			responseChan <- models.StreamResponse{Err: errors.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error)}
			return
		}

		reader := bufio.NewReader(resp.Body)

		for {
			line, err := reader.ReadString('\n')
			if err != nil && err != io.EOF {
				markdownBuffer.Reset()
				responseChan <- models.StreamResponse{Err: errors.Errorf("error reading stream: %w", err)}
				return
			}

			if strings.TrimSpace(line) != "" {
				var response ollama_models.OllamaChatCompletionResponse
				if jsonErr := json.Unmarshal([]byte(line), &response); jsonErr != nil {
					markdownBuffer.Reset()
					responseChan <- models.StreamResponse{Err: errors.Errorf("error unmarshalling chunk: %w", jsonErr)}
					return
				}

				if response.Error != "" {
					markdownBuffer.Reset()
					responseChan <- models.StreamResponse{Err: errors.Errorf("API returned an error: %s", response.Error)}
					return
				}

				if len(response.Message.Content) > 0 {
					content := response.Message.Content
					markdownBuffer.WriteString(content)

					// Send chunk if it contains a newline, and then reset the buffer
					if strings.Contains(content, "\n") {
						responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
						markdownBuffer.Reset()
					}
				}

				if response.Done {
					if markdownBuffer.Len() > 0 {
						responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
					}
					responseChan <- models.StreamResponse{Done: true}

					if response.PromptEvalCount > 0 && ollamaProvider.TokenManagement != nil {
						ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
					}
					return
				}
			}

			if err == io.EOF {
				break
			}
		}

		// The server closed the stream without a done marker.
		if markdownBuffer.Len() > 0 {
			responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
		}
		responseChan <- models.StreamResponse{Err: errors.New("stream ended before the response was complete")}
	}()

	return responseChan
}
