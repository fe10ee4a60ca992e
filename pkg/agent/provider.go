package agent

import (
	"context"
	"fmt"

	"github.com/BrenchCC/MiniAgent-FromScratch/internal/config"
)

// LLMProvider is the interface implemented by chat completion backends.
type LLMProvider interface {
	// Call makes a single LLM API call.
	Call(ctx context.Context, request LLMRequest) (*LLMResponse, error)

	// Provider returns the provider name.
	Provider() string
}

// LLMRequest contains the parameters for one LLM call.
type LLMRequest struct {
	Model        string
	Messages     []Message
	Tools        []map[string]interface{}
	Temperature  float64
	TopP         float64
	MaxTokens    int
	SystemPrompt string
}

// LLMResponse is the normalized response from any provider.
type LLMResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     *TokenUsage
}

// NewProvider builds an LLMProvider from connection settings. The provider
// name must be one of "openai" or "anthropic".
func NewProvider(cfg config.LLMConfig) (LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing API key for provider %q", cfg.Provider)
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
