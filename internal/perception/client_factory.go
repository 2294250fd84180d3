package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storyagent/internal/config"
)

// NewClientFromConfig creates an LLM client from the llm config section.
// Empty fields fall back to the provider defaults.
func NewClientFromConfig(ctx context.Context, cfg config.LLMConfig, timeout time.Duration) (LLMClient, error) {
	provider := Provider(strings.ToLower(strings.TrimSpace(cfg.Provider)))

	switch provider {
	case ProviderOllama, "":
		oc := DefaultOllamaConfig()
		applyOpenAIOverrides(&oc, cfg, timeout)
		return NewOpenAIClientWithConfig(oc), nil

	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("API key not configured for %s", provider)
		}
		oc := DefaultOpenAIConfig(cfg.APIKey)
		applyOpenAIOverrides(&oc, cfg, timeout)
		return NewOpenAIClientWithConfig(oc), nil

	case ProviderGemini:
		gc := DefaultGeminiConfig(cfg.APIKey)
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		if timeout > 0 {
			gc.Timeout = timeout
		}
		if cfg.Temperature > 0 {
			gc.Temperature = cfg.Temperature
		}
		return NewGeminiClientWithConfig(ctx, gc)

	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: %v)", cfg.Provider, config.ValidProviders)
	}
}

func applyOpenAIOverrides(oc *OpenAIConfig, cfg config.LLMConfig, timeout time.Duration) {
	if cfg.APIKey != "" {
		oc.APIKey = cfg.APIKey
	}
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Model != "" {
		oc.Model = cfg.Model
	}
	if timeout > 0 {
		oc.Timeout = timeout
	}
	if cfg.Temperature > 0 {
		oc.Temperature = cfg.Temperature
	}
}
