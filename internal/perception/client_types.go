// Package perception talks to language models: it turns story text into fact
// records and asks for minimal rewrites of inconsistent stories.
package perception

import (
	"context"
	"time"
)

const defaultSystemPrompt = "You are a careful assistant for story consistency checking. Respond in English. Follow the output format exactly."

// LLMClient is the minimal completion interface every provider implements.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Provider represents an LLM provider.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// OpenAIConfig holds configuration for OpenAI-compatible clients. Ollama is
// served through the same chat completions API.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	// RequireKey rejects calls without an API key. Local servers don't need one.
	RequireKey bool
	MaxRetries int
}

// GeminiConfig holds configuration for Gemini client.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Timeout         time.Duration
	Temperature     float64
	MaxOutputTokens int
}

// OpenAIMessage represents a message.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIResponseFormat requests JSON output.
type OpenAIResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

// OpenAIRequest represents the chat completions request body.
type OpenAIRequest struct {
	Model          string                `json:"model"`
	Messages       []OpenAIMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    float64               `json:"temperature,omitempty"`
	ResponseFormat *OpenAIResponseFormat `json:"response_format,omitempty"`
}

// OpenAIResponse represents the chat completions response body.
type OpenAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// jsonModeKey marks a context whose completion must be a JSON object.
type jsonModeKey struct{}

// WithJSONMode asks clients that support it to constrain output to JSON.
func WithJSONMode(ctx context.Context) context.Context {
	return context.WithValue(ctx, jsonModeKey{}, true)
}

func jsonMode(ctx context.Context) bool {
	v, _ := ctx.Value(jsonModeKey{}).(bool)
	return v
}
