package openai

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
	openai_models "github.com/meysamhadeli/aifiles/providers/openai/models"
	contracts_token "github.com/meysamhadeli/aifiles/token_management/contracts"
	"gitlab.com/tozd/go/errors"
)

// OpenAIConfig implements IChatAIProvider for OpenAI compatible chat completion endpoints.
type OpenAIConfig struct {
	BaseURL         string
	Model           string
	ApiKey          string
	Temperature     *float64
	Stream          bool
	TokenManagement contracts_token.ITokenManagement
	Client          *http.Client
}

const defaultBaseURL = "https://api.openai.com/v1"

// NewOpenAIChatProvider initializes a new OpenAI chat provider.
func NewOpenAIChatProvider(config *OpenAIConfig) contracts.IChatAIProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := config.Client
	if client == nil {
		client = &http.Client{}
	}
	return &OpenAIConfig{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		Model:           config.Model,
		ApiKey:          config.ApiKey,
		Temperature:     config.Temperature,
		Stream:          config.Stream,
		TokenManagement: config.TokenManagement,
		Client:          client,
	}
}

func (openAIProvider *OpenAIConfig) ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		resp, err := openAIProvider.send(ctx, userInput, prompt)
		if err != nil {
			responseChan <- models.StreamResponse{Err: err}
			return
		}
		defer resp.Body.Close()

		if openAIProvider.Stream {
			openAIProvider.readStream(resp.Body, responseChan)
			return
		}
		openAIProvider.readSingle(resp.Body, responseChan)
	}()

	return responseChan
}

func (openAIProvider *OpenAIConfig) send(ctx context.Context, userInput string, prompt string) (*http.Response, error) {
	reqBody := openai_models.OpenAIChatCompletionRequest{
		Model: openAIProvider.Model,
		Messages: []openai_models.Message{
			{Role: "system", Content: prompt},
			{Role: "user", Content: userInput},
		},
		Stream:      openAIProvider.Stream,
		Temperature: openAIProvider.Temperature,
	}
	if openAIProvider.Stream {
		reqBody.StreamOptions = &openai_models.StreamOptions{IncludeUsage: true}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIProvider.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+openAIProvider.ApiKey)
	if openAIProvider.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := openAIProvider.Client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, errors.Errorf("request canceled: %w", err)
		}
		return nil, errors.Errorf("error sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiError models.AIError
	if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error.Message == "" {
		return errors.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return errors.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error.Message)
}

func (openAIProvider *OpenAIConfig) readSingle(body io.Reader, responseChan chan<- models.StreamResponse) {
	var response openai_models.OpenAIChatCompletionResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		responseChan <- models.StreamResponse{Err: errors.Errorf("error decoding response: %w", err)}
		return
	}

	if response.Error != nil {
		responseChan <- models.StreamResponse{Err: errors.Errorf("API returned an error: %s", response.Error.Message)}
		return
	}

	if len(response.Choices) == 0 {
		responseChan <- models.StreamResponse{Err: errors.New("malformed response: no choices returned")}
		return
	}

	openAIProvider.recordUsage(response.Usage)

	responseChan <- models.StreamResponse{Content: response.Choices[0].Message.Content}
	responseChan <- models.StreamResponse{Done: true}
}

func (openAIProvider *OpenAIConfig) readStream(body io.Reader, responseChan chan<- models.StreamResponse) {
	var markdownBuffer strings.Builder // accumulates content until newline
	reader := bufio.NewReader(body)
	sawData := false
	var raw strings.Builder // body text seen before the first data: line

	flush := func() {
		if markdownBuffer.Len() > 0 {
			responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
			markdownBuffer.Reset()
		}
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			markdownBuffer.Reset()
			responseChan <- models.StreamResponse{Err: errors.Errorf("error reading stream: %w", err)}
			return
		}

		trimmed := strings.TrimSpace(line)
		if !sawData && !strings.HasPrefix(trimmed, "data:") && raw.Len() < 4096 {
			raw.WriteString(line)
		}
		if strings.HasPrefix(trimmed, "data:") {
			sawData = true
			payload := strings.TrimSpace(strings.TrimPrefix(trimmed, "data:"))

			if payload == "[DONE]" {
				flush()
				responseChan <- models.StreamResponse{Done: true}
				return
			}

			var chunk openai_models.OpenAIChatCompletionResponse
			if jsonErr := json.Unmarshal([]byte(payload), &chunk); jsonErr != nil {
				markdownBuffer.Reset()
				responseChan <- models.StreamResponse{Err: errors.Errorf("error unmarshalling chunk: %w", jsonErr)}
				return
			}

			if chunk.Error != nil {
				markdownBuffer.Reset()
				responseChan <- models.StreamResponse{Err: errors.Errorf("API returned an error: %s", chunk.Error.Message)}
				return
			}

			openAIProvider.recordUsage(chunk.Usage)

			if len(chunk.Choices) > 0 {
				content := chunk.Choices[0].Delta.Content
				markdownBuffer.WriteString(content)

				// Send chunk if it contains a newline, and then reset the buffer
				if strings.Contains(content, "\n") {
					flush()
				}
			}
		}

		// EOF before [DONE] means the response was cut off.
		if err == io.EOF {
			markdownBuffer.Reset()
			if !sawData {
				responseChan <- models.StreamResponse{Err: nonStreamError(strings.TrimSpace(raw.String()))}
				return
			}
			responseChan <- models.StreamResponse{Err: errors.New("stream ended before the response was complete")}
			return
		}
	}
}

func (openAIProvider *OpenAIConfig) recordUsage(usage *openai_models.Usage) {
	if usage == nil || openAIProvider.TokenManagement == nil {
		return
	}
	openAIProvider.TokenManagement.UsedTokens(usage.PromptTokens, usage.CompletionTokens)
}

// nonStreamError describes a 200 response that carried no event stream.
func nonStreamError(body string) error {
	if body == "" {
		return errors.New("malformed response: empty body")
	}
	var apiError models.AIError
	if err := json.Unmarshal([]byte(body), &apiError); err == nil && apiError.Error.Message != "" {
		return errors.Errorf("API returned an error: %s", apiError.Error.Message)
	}
	return errors.Errorf("malformed response: expected an event stream, got %q", truncate(body, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
