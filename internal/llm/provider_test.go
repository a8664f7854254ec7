package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Err: &ErrRateLimit{}},
	)

	resp, err := mock.Generate(context.Background(), Request{System: "sys"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"a":1}` || resp.Usage.InputTokens != 10 || resp.StopReason != "end" {
		t.Errorf("first response = %+v", resp)
	}

	var rl *ErrRateLimit
	if _, err := mock.Generate(context.Background(), Request{}); !errors.As(err, &rl) {
		t.Errorf("second call err = %T, want *ErrRateLimit", err)
	}

	var unavail *ErrProviderUnavailable
	if _, err := mock.Generate(context.Background(), Request{}); !errors.As(err, &unavail) {
		t.Errorf("empty queue err = %T, want *ErrProviderUnavailable", err)
	}

	if mock.CallCount() != 3 || mock.Calls[0].System != "sys" {
		t.Errorf("calls = %+v", mock.Calls)
	}
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"assignments":"nope"}`)})
	_, err := mock.Generate(context.Background(), Request{Schema: assignmentListSchema()})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want *ErrInvalidResponse", err)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("PurposeFrom(empty) = %q, want unknown", p)
	}
	if p := PurposeFrom(WithPurpose(ctx, "syllabus")); p != "syllabus" {
		t.Fatalf("PurposeFrom = %q, want syllabus", p)
	}
}

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STUDIORA_LLM_PROVIDER", "STUDIORA_LLM_MODEL", "STUDIORA_LLM_API_KEY", "STUDIORA_LLM_BASE_URL",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		provider      string
		model         string
		wantProvider  string
		wantModel     string
		wantKey       string
		wantBaseURL   string
		wantValidates bool
	}{
		{
			name:         "nothing configured",
			wantProvider: "",
		},
		{
			name:          "discover anthropic first",
			env:           map[string]string{"OPENAI_API_KEY": "sk-o", "ANTHROPIC_API_KEY": "sk-a"},
			wantProvider:  ProviderAnthropic,
			wantModel:     "claude-haiku",
			wantKey:       "sk-a",
			wantValidates: true,
		},
		{
			name:          "file provider picks its vendor key",
			env:           map[string]string{"OPENAI_API_KEY": "sk-o", "ANTHROPIC_API_KEY": "sk-a"},
			provider:      ProviderOpenAI,
			model:         "gpt-4.1",
			wantProvider:  ProviderOpenAI,
			wantModel:     "gpt-4.1",
			wantKey:       "sk-o",
			wantValidates: true,
		},
		{
			name:          "env overrides file",
			env:           map[string]string{"STUDIORA_LLM_PROVIDER": "gemini", "STUDIORA_LLM_API_KEY": "g-key"},
			provider:      ProviderOpenAI,
			wantProvider:  ProviderGemini,
			wantModel:     "gemini-flash",
			wantKey:       "g-key",
			wantValidates: true,
		},
		{
			name:          "openrouter gets its base url",
			env:           map[string]string{"OPENROUTER_API_KEY": "or-key"},
			wantProvider:  ProviderOpenRouter,
			wantModel:     "openai/gpt-4o-mini",
			wantKey:       "or-key",
			wantBaseURL:   defaultOpenRouterBaseURL,
			wantValidates: true,
		},
		{
			name:          "mock needs no key",
			provider:      ProviderMock,
			wantProvider:  ProviderMock,
			wantModel:     "mock",
			wantValidates: true,
		},
		{
			name:         "provider without key",
			provider:     ProviderAnthropic,
			wantProvider: ProviderAnthropic,
			wantModel:    "claude-haiku",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearLLMEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := ConfigFromEnv(tt.provider, tt.model)
			if cfg.Provider != tt.wantProvider || cfg.Model != tt.wantModel || cfg.APIKey != tt.wantKey || cfg.BaseURL != tt.wantBaseURL {
				t.Errorf("ConfigFromEnv = {%q %q %q %q}, want {%q %q %q %q}",
					cfg.Provider, cfg.Model, cfg.APIKey, cfg.BaseURL,
					tt.wantProvider, tt.wantModel, tt.wantKey, tt.wantBaseURL)
			}
			if err := cfg.Validate(); (err == nil) != tt.wantValidates {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.wantValidates)
			}
		})
	}
}

func TestConfigValidate_UnknownProvider(t *testing.T) {
	if err := (Config{Provider: "llama"}).Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNew_Mock(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: ProviderMock}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Errorf("ModelID = %q, want mock", p.ModelID())
	}
}

func TestNew_RejectsMissingKey(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: ProviderOpenAI}, nil, zerolog.Nop()); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestModelAliases(t *testing.T) {
	tests := []struct {
		aliases map[string]string
		in      string
		want    string
	}{
		{anthropicModels, "claude-haiku", "claude-haiku-4-5-20251001"},
		{anthropicModels, "claude-opus-4-1", "claude-opus-4-1"},
		{openaiModels, "gpt-4o-mini", "gpt-4o-mini"},
		{geminiModels, "gemini-flash", "gemini-2.5-flash"},
		{geminiModels, "gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.in, tt.aliases); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	if c == nil {
		t.Fatal("expected pricing for gpt-4o-mini")
	}
	if got := c.Cost(1_000_000, 1_000_000); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Cost = %v, want 0.75", got)
	}
	if LookupCost("no-such-model") != nil {
		t.Error("expected nil for unknown model")
	}
}
