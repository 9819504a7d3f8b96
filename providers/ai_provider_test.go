package providers

import (
	"bytes"
	"testing"

	"github.com/meysamhadeli/aifiles/token_management"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatProvider(t *testing.T) {
	tm := token_management.NewTokenManager(&bytes.Buffer{})

	for _, name := range []string{ProviderOpenAI, ProviderOllama} {
		provider, err := NewChatProvider(&AIProviderConfig{Provider: name, Model: "m"}, tm)
		require.NoError(t, err, name)
		assert.NotNil(t, provider, name)
	}

	_, err := NewChatProvider(&AIProviderConfig{Provider: "gemini"}, tm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini")
}
