package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func assignmentListSchema() *Schema {
	return &Schema{
		Name: "test-assignment-list",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"assignments": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":    map[string]any{"type": "string"},
							"due_date": map[string]any{"type": "string"},
							"hours":    map[string]any{"type": "number", "minimum": 0},
							"priority": map[string]any{"type": "string", "enum": []any{"low", "medium", "high", "urgent"}},
						},
						"required": []any{"title", "due_date"},
					},
				},
			},
			"required": []any{"assignments"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"assignments":[{"title":"Quiz 1","due_date":"2025-03-10","hours":2,"priority":"high"}]}`, false},
		{"optional fields omitted", `{"assignments":[{"title":"Quiz 1","due_date":"2025-03-10"}]}`, false},
		{"empty list", `{"assignments":[]}`, false},
		{"missing required", `{"assignments":[{"title":"Quiz 1"}]}`, true},
		{"wrong type", `{"assignments":[{"title":"Quiz 1","due_date":"2025-03-10","hours":"two"}]}`, true},
		{"bad enum", `{"assignments":[{"title":"Quiz 1","due_date":"2025-03-10","priority":"whenever"}]}`, true},
		{"negative hours", `{"assignments":[{"title":"Quiz 1","due_date":"2025-03-10","hours":-1}]}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(assignmentListSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("error type = %T, want *ErrInvalidResponse", err)
				}
				if string(inv.Content) != tt.raw {
					t.Errorf("Content = %q, want %q", inv.Content, tt.raw)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`plain text`)); err != nil {
		t.Fatalf("nil schema: %v", err)
	}
}
