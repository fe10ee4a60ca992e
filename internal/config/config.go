package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the main MiniAgent configuration
type Config struct {
	// LLM connection
	LLM LLMConfig `json:"llm" mapstructure:"llm"`

	// Agent behavior
	Agent AgentConfig `json:"agent" mapstructure:"agent"`

	// Tools
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Memory
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// LLMConfig holds LLM service connection settings
type LLMConfig struct {
	Provider    string  `json:"provider" mapstructure:"provider"` // openai, anthropic
	Model       string  `json:"model" mapstructure:"model"`
	APIKey      string  `json:"api_key" mapstructure:"api_key"`
	BaseURL     string  `json:"base_url" mapstructure:"base_url"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	TopP        float64 `json:"top_p" mapstructure:"top_p"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
}

// AgentConfig holds agent loop settings
type AgentConfig struct {
	SystemPrompt  string `json:"system_prompt" mapstructure:"system_prompt"`
	MaxIterations int    `json:"max_iterations" mapstructure:"max_iterations"`
	MaxRetries    int    `json:"max_retries" mapstructure:"max_retries"`
	UseReflector  bool   `json:"use_reflector" mapstructure:"use_reflector"`
}

// ToolsConfig holds tool runtime settings
type ToolsConfig struct {
	WorkspaceRoot  string `json:"workspace_root" mapstructure:"workspace_root"`
	ExecTimeoutSec int    `json:"exec_timeout_sec" mapstructure:"exec_timeout_sec"`
	HTTPTimeoutSec int    `json:"http_timeout_sec" mapstructure:"http_timeout_sec"`
}

// MemoryConfig holds conversation snapshot settings
type MemoryConfig struct {
	Enabled  bool `json:"enabled" mapstructure:"enabled"`
	MaxFiles int  `json:"max_files" mapstructure:"max_files"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// DefaultSystemPrompt matches the assistant identity the tools were written for.
const DefaultSystemPrompt = "You are a helpful assistant called MiniAgent created by brench that can use tools to get information and perform tasks."

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			TopP:        0.95,
			MaxTokens:   4096,
		},
		Agent: AgentConfig{
			SystemPrompt:  DefaultSystemPrompt,
			MaxIterations: 8,
			MaxRetries:    3,
			UseReflector:  true,
		},
		Tools: ToolsConfig{
			ExecTimeoutSec: 30,
			HTTPTimeoutSec: 30,
		},
		Memory: MemoryConfig{
			Enabled:  true,
			MaxFiles: 8,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			Redaction: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9109",
		},
	}
}

// HomeDir resolves the MiniAgent home directory. MINIAGENT_HOME overrides
// the default ~/.miniagent.
func HomeDir() (string, error) {
	if custom := os.Getenv("MINIAGENT_HOME"); custom != "" {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".miniagent"), nil
}
