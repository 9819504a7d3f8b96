package contracts

import (
	"context"

	"github.com/meysamhadeli/aifiles/providers/models"
)

// IChatAIProvider sends one chat completion request. The returned channel is closed by the
// provider once the response is complete or has failed.
type IChatAIProvider interface {
	ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse
}
