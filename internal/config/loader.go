package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration from file and environment. A missing config
// file yields the defaults; environment variables override in both cases.
func (l *Loader) Load() (*Config, error) {
	configPath := l.configPath
	if configPath == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(home, "miniagent.json")
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		v := viper.New()
		v.SetConfigFile(configPath)
		v.SetConfigType("json")

		v.SetEnvPrefix("MINIAGENT")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	applyLLMEnv(&cfg.LLM)

	if cfg.DataDir == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = home
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "miniagent.log")
	}

	if cfg.Tools.WorkspaceRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.Tools.WorkspaceRoot = cwd
	}

	return cfg, nil
}

// applyLLMEnv honors the LLM_* environment contract used by the connection
// validator: LLM_API_KEY, LLM_API_BASE, LLM_MODEL, LLM_PROVIDER.
func applyLLMEnv(llm *LLMConfig) {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		llm.APIKey = key
	}
	if base := os.Getenv("LLM_API_BASE"); base != "" {
		llm.BaseURL = normalizeBaseURL(base)
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		llm.Model = model
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		llm.Provider = provider
	}
}

// normalizeBaseURL ensures the base URL carries a scheme.
func normalizeBaseURL(base string) string {
	if base == "" {
		return base
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return "https://" + base
	}
	return base
}

// Save saves the configuration to file
func (l *Loader) Save(cfg *Config) error {
	configPath := l.configPath
	if configPath == "" {
		home, err := HomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, "miniagent.json")
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := marshalConfig(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
