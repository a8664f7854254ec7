// Package llm talks to hosted language models for syllabus extraction.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Provider generates a single completion.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set the output is JSON that has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the concrete model identifier in use.
	ModelID() string
}

// Request is one prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema asks for structured output. Nil means free text.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema document.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the model output and usage.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // "end" or "max_tokens"
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// New builds the provider selected by cfg and wraps it so that every call
// is retried on transient failures and recorded in sink.
func New(ctx context.Context, cfg Config, sink EventSink, log zerolog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg)
	case ProviderOpenAI, ProviderOpenRouter:
		base, err = NewOpenAIProvider(cfg)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg)
	case ProviderMock:
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, sink, log)
	return WithRetry(logged, cfg.Retry, cfg.Timeout, log), nil
}
