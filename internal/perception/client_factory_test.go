package perception

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyagent/internal/config"
)

func TestNewClientFromConfig_Providers(t *testing.T) {
	ctx := context.Background()

	// 1. Ollama needs no key
	client, err := NewClientFromConfig(ctx, config.LLMConfig{Provider: "ollama", Model: "mistral"}, time.Minute)
	require.NoError(t, err)
	oc, ok := client.(*OpenAIClient)
	require.True(t, ok, "expected *OpenAIClient, got %T", client)
	assert.Equal(t, "mistral", oc.GetModel())
	assert.Equal(t, "http://localhost:11434/v1", oc.baseURL)
	assert.False(t, oc.requireKey)
	assert.Equal(t, time.Minute, oc.httpClient.Timeout)

	// 2. OpenAI
	client, err = NewClientFromConfig(ctx, config.LLMConfig{Provider: "OpenAI", APIKey: "sk-test", BaseURL: "http://proxy.local/v1/"}, 0)
	require.NoError(t, err)
	oc, ok = client.(*OpenAIClient)
	require.True(t, ok, "expected *OpenAIClient, got %T", client)
	assert.Equal(t, "gpt-4o-mini", oc.GetModel())
	assert.Equal(t, "http://proxy.local/v1", oc.baseURL)
	assert.True(t, oc.requireKey)

	// 3. Gemini
	client, err = NewClientFromConfig(ctx, config.LLMConfig{Provider: "gemini", APIKey: "g-test"}, 0)
	require.NoError(t, err)
	gc, ok := client.(*GeminiClient)
	require.True(t, ok, "expected *GeminiClient, got %T", client)
	assert.Equal(t, "gemini-2.5-flash", gc.GetModel())
}

func TestNewClientFromConfig_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewClientFromConfig(ctx, config.LLMConfig{Provider: "openai"}, 0)
	assert.ErrorContains(t, err, "API key not configured")

	_, err = NewClientFromConfig(ctx, config.LLMConfig{Provider: "gemini"}, 0)
	assert.ErrorContains(t, err, "API key is required")

	_, err = NewClientFromConfig(ctx, config.LLMConfig{Provider: "claude"}, 0)
	assert.ErrorContains(t, err, "unknown provider")
}

func TestNewClientFromConfig_EmptyProviderIsOllama(t *testing.T) {
	client, err := NewClientFromConfig(context.Background(), config.LLMConfig{}, 0)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)
}
