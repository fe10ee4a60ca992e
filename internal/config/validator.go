package config

import (
	"encoding/json"
	"fmt"
)

// Validate checks the configuration for structural problems before use.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	case "":
		return fmt.Errorf("llm.provider is required")
	default:
		return fmt.Errorf("unsupported llm.provider: %s", c.LLM.Provider)
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}

	if c.LLM.TopP < 0 || c.LLM.TopP > 1 {
		return fmt.Errorf("llm.top_p must be between 0 and 1, got %v", c.LLM.TopP)
	}

	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations)
	}

	if c.Memory.MaxFiles <= 0 {
		return fmt.Errorf("memory.max_files must be positive, got %d", c.Memory.MaxFiles)
	}

	if c.Tools.ExecTimeoutSec <= 0 {
		return fmt.Errorf("tools.exec_timeout_sec must be positive, got %d", c.Tools.ExecTimeoutSec)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}

	return nil
}

// ValidateCredentials checks that the LLM connection settings are complete.
// Kept separate from Validate so catalog-only commands work without a key.
func (c *Config) ValidateCredentials() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is not configured (set LLM_API_KEY or llm.api_key)")
	}
	return nil
}

func marshalConfig(cfg *Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append(data, '\n'), nil
}
