package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 8, cfg.Agent.MaxIterations)
	assert.Equal(t, 8, cfg.Memory.MaxFiles)
	assert.True(t, cfg.Agent.UseReflector)
	assert.True(t, cfg.Logging.Redaction)
	assert.Equal(t, DefaultSystemPrompt, cfg.Agent.SystemPrompt)
}

func TestHomeDir_EnvOverride(t *testing.T) {
	t.Setenv("MINIAGENT_HOME", "/tmp/custom-home")

	home, err := HomeDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-home", home)
}

func TestLoader_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("MINIAGENT_HOME", t.TempDir())
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_API_BASE", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_PROVIDER", "")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.Logging.File)
	assert.NotEmpty(t, cfg.Tools.WorkspaceRoot)
}

func TestLoader_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "miniagent.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"llm": {"provider": "anthropic", "model": "claude-sonnet-4-20250514"},
		"agent": {"max_iterations": 5}
	}`), 0644))
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_API_BASE", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_PROVIDER", "")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	// Untouched sections keep their defaults
	assert.Equal(t, 8, cfg.Memory.MaxFiles)
}

func TestLoader_LLMEnvOverrides(t *testing.T) {
	t.Setenv("MINIAGENT_HOME", t.TempDir())
	t.Setenv("LLM_API_KEY", "sk-test-123")
	t.Setenv("LLM_API_BASE", "api.example.com/v1")
	t.Setenv("LLM_MODEL", "custom-model")
	t.Setenv("LLM_PROVIDER", "anthropic")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test-123", cfg.LLM.APIKey)
	assert.Equal(t, "https://api.example.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "custom-model", cfg.LLM.Model)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.example.com", normalizeBaseURL("api.example.com"))
	assert.Equal(t, "http://localhost:8080", normalizeBaseURL("http://localhost:8080"))
	assert.Equal(t, "https://x.test", normalizeBaseURL("https://x.test"))
	assert.Equal(t, "", normalizeBaseURL(""))
}

func TestLoader_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "miniagent.json")
	loader := NewLoader(path)

	cfg := DefaultConfig()
	cfg.LLM.Model = "saved-model"
	require.NoError(t, loader.Save(cfg))
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_API_BASE", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_PROVIDER", "")

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "saved-model", loaded.LLM.Model)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.DataDir = "/tmp"
		return cfg
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing provider", func(c *Config) { c.LLM.Provider = "" }},
		{"unsupported provider", func(c *Config) { c.LLM.Provider = "gemini" }},
		{"missing model", func(c *Config) { c.LLM.Model = "" }},
		{"temperature too high", func(c *Config) { c.LLM.Temperature = 2.5 }},
		{"negative temperature", func(c *Config) { c.LLM.Temperature = -0.1 }},
		{"top_p out of range", func(c *Config) { c.LLM.TopP = 1.5 }},
		{"zero iterations", func(c *Config) { c.Agent.MaxIterations = 0 }},
		{"zero memory files", func(c *Config) { c.Memory.MaxFiles = 0 }},
		{"zero exec timeout", func(c *Config) { c.Tools.ExecTimeoutSec = 0 }},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_ValidateCredentials(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.ValidateCredentials())

	cfg.LLM.APIKey = "sk-something"
	assert.NoError(t, cfg.ValidateCredentials())
}
