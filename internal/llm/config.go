package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Config selects one provider and how to reach it.
type Config struct {
	Provider string

	// Model is a friendly alias (see the per-provider tables) or a
	// provider model ID. Empty selects the provider default.
	Model string

	APIKey string

	// BaseURL overrides the endpoint of OpenAI-compatible providers.
	BaseURL string

	Retry RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderGemini:     "gemini-flash",
	ProviderMock:       "mock",
}

// keyEnv lists the vendor variables consulted when no STUDIORA_LLM_API_KEY
// is set, in discovery order.
var keyEnv = []struct {
	provider string
	env      string
}{
	{ProviderAnthropic, "ANTHROPIC_API_KEY"},
	{ProviderOpenAI, "OPENAI_API_KEY"},
	{ProviderGemini, "GEMINI_API_KEY"},
	{ProviderOpenRouter, "OPENROUTER_API_KEY"},
}

// DefaultConfig returns retry and timeout defaults with no provider.
func DefaultConfig() Config {
	return Config{
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv resolves a Config. provider and model come from the config
// file and may be empty; STUDIORA_LLM_* variables override them. Without an
// explicit provider the first vendor API key found in the environment picks
// one.
func ConfigFromEnv(provider, model string) Config {
	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = model

	if v := os.Getenv("STUDIORA_LLM_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("STUDIORA_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	cfg.APIKey = os.Getenv("STUDIORA_LLM_API_KEY")
	cfg.BaseURL = os.Getenv("STUDIORA_LLM_BASE_URL")

	for _, k := range keyEnv {
		if cfg.APIKey != "" {
			break
		}
		if cfg.Provider != "" && cfg.Provider != k.provider {
			continue
		}
		if v := os.Getenv(k.env); v != "" {
			cfg.Provider = k.provider
			cfg.APIKey = v
		}
	}

	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}
	if cfg.Provider == ProviderOpenRouter && cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterBaseURL
	}
	return cfg
}

// Validate checks that the provider is known and has a key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("no API key for the %s provider: set STUDIORA_LLM_API_KEY", c.Provider)
		}
		return nil
	case "":
		return fmt.Errorf("no LLM provider configured: set llm.provider or an API key variable")
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}

// resolveModel maps an alias to a model ID, passing unknown names through.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
