package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// serve starts a test server that answers every request with status and
// body.
func serve(t *testing.T, status int, body any) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

var extractRequest = Request{
	System:    "Extract assignments.",
	Messages:  []Message{{Role: RoleUser, Content: "Midterm exam due March 13."}},
	Schema:    assignmentListSchema(),
	MaxTokens: 512,
}

const extractJSON = `{"assignments":[{"title":"Midterm exam","due_date":"2025-03-13"}]}`

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func openAICompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1741000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func apiError(kind string) map[string]any {
	return map[string]any{
		"type":  "error",
		"error": map[string]any{"type": kind, "message": kind},
	}
}

func TestAnthropicProvider(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr any
	}{
		{"structured output", http.StatusOK, anthropicMessage(extractJSON, "end_turn"), nil},
		{"schema mismatch", http.StatusOK, anthropicMessage(`{"items":[]}`, "end_turn"), &ErrInvalidResponse{}},
		{"truncated", http.StatusOK, anthropicMessage(`{"assignments":[`, "max_tokens"), &ErrMaxTokensExceeded{}},
		{"rate limited", http.StatusTooManyRequests, apiError("rate_limit_error"), &ErrRateLimit{}},
		{"server error", http.StatusInternalServerError, apiError("api_error"), &ErrProviderUnavailable{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewAnthropicProvider(Config{APIKey: "test-key", Model: "claude-haiku", BaseURL: serve(t, tt.status, tt.body)})
			if err != nil {
				t.Fatalf("new provider: %v", err)
			}
			if p.ModelID() != "claude-haiku-4-5-20251001" {
				t.Errorf("ModelID = %q", p.ModelID())
			}
			resp, err := p.Generate(context.Background(), extractRequest)
			checkProviderResult(t, resp, err, tt.wantErr, 50)
		})
	}
}

func TestOpenAIProvider(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr any
	}{
		{"structured output", http.StatusOK, openAICompletion(extractJSON, "stop"), nil},
		{"schema mismatch", http.StatusOK, openAICompletion(`[]`, "stop"), &ErrInvalidResponse{}},
		{"truncated", http.StatusOK, openAICompletion(`{"assignments":[`, "length"), &ErrMaxTokensExceeded{}},
		{"no choices", http.StatusOK, map[string]any{"id": "x", "choices": []any{}}, &ErrInvalidResponse{}},
		{"rate limited", http.StatusTooManyRequests, map[string]any{"error": map[string]any{"message": "slow down", "type": "tokens"}}, &ErrRateLimit{}},
		{"server error", http.StatusInternalServerError, map[string]any{"error": map[string]any{"message": "boom", "type": "server_error"}}, &ErrProviderUnavailable{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenAIProvider(Config{Provider: ProviderOpenAI, APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: serve(t, tt.status, tt.body) + "/v1"})
			if err != nil {
				t.Fatalf("new provider: %v", err)
			}
			resp, err := p.Generate(context.Background(), extractRequest)
			checkProviderResult(t, resp, err, tt.wantErr, 40)
		})
	}
}

func checkProviderResult(t *testing.T, resp *Response, err error, wantErr any, wantInput int) {
	t.Helper()
	switch want := wantErr.(type) {
	case nil:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(resp.Content) != extractJSON {
			t.Errorf("content = %s", resp.Content)
		}
		if resp.Usage.InputTokens != wantInput || resp.StopReason != "end" {
			t.Errorf("response = %+v", resp)
		}
	case *ErrInvalidResponse:
		if !errors.As(err, &want) {
			t.Fatalf("err = %T (%v), want *ErrInvalidResponse", err, err)
		}
	case *ErrMaxTokensExceeded:
		if !errors.As(err, &want) {
			t.Fatalf("err = %T (%v), want *ErrMaxTokensExceeded", err, err)
		}
	case *ErrRateLimit:
		if !errors.As(err, &want) {
			t.Fatalf("err = %T (%v), want *ErrRateLimit", err, err)
		}
	case *ErrProviderUnavailable:
		if !errors.As(err, &want) {
			t.Fatalf("err = %T (%v), want *ErrProviderUnavailable", err, err)
		}
	}
}

func TestNewProviders_RequireKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err == nil {
		t.Error("anthropic: expected error without key")
	}
	if _, err := NewOpenAIProvider(Config{Provider: ProviderOpenRouter}); err == nil {
		t.Error("openrouter: expected error without key")
	}
	if _, err := NewGeminiProvider(context.Background(), Config{}); err == nil {
		t.Error("gemini: expected error without key")
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "description": "assignment title"},
			"hours":    map[string]any{"type": []any{"number", "null"}},
			"priority": map[string]any{"type": "string", "enum": []string{"low", "high"}},
			"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []any{"title"},
	})

	if s.Type != "OBJECT" || len(s.Properties) != 4 {
		t.Fatalf("schema = %+v", s)
	}
	if s.Properties["title"].Description != "assignment title" {
		t.Errorf("description = %q", s.Properties["title"].Description)
	}
	hours := s.Properties["hours"]
	if hours.Type != "NUMBER" || hours.Nullable == nil || !*hours.Nullable {
		t.Errorf("hours = %+v, want nullable NUMBER", hours)
	}
	if len(s.Properties["priority"].Enum) != 2 {
		t.Errorf("enum = %v", s.Properties["priority"].Enum)
	}
	if s.Properties["tags"].Items == nil || s.Properties["tags"].Items.Type != "STRING" {
		t.Errorf("tags items = %+v", s.Properties["tags"].Items)
	}
	if len(s.Required) != 1 || s.Required[0] != "title" {
		t.Errorf("required = %v", s.Required)
	}
}
