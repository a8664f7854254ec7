package syllabus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/studiora/studiora/internal/llm"
	"github.com/studiora/studiora/internal/scheduler"
)

// Config tunes model requests.
type Config struct {
	MaxTokens   int
	Temperature float64
}

func DefaultConfig() Config {
	return Config{MaxTokens: 4096}
}

// AssignmentListSchema is the structured output requested from the model.
// Every property is required with nullable optionals so that providers
// with strict schema modes accept it.
var AssignmentListSchema = &llm.Schema{
	Name:        "assignment-list",
	Description: "Assignments, exams and other graded coursework found in a syllabus",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"assignments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{
							"type":        "string",
							"description": "Short name of the assignment as written in the syllabus",
						},
						"date": map[string]any{
							"type":        "string",
							"description": "Due date as YYYY-MM-DD",
						},
						"time": map[string]any{
							"type":        []any{"string", "null"},
							"description": "Due time as 24-hour HH:MM, null when not stated",
						},
						"type": map[string]any{
							"type": "string",
							"enum": typeEnum(),
						},
						"hours": map[string]any{
							"type":        []any{"number", "null"},
							"description": "Estimated hours of work, null when unknown",
						},
						"priority": map[string]any{
							"type": "string",
							"enum": []any{"low", "medium", "high", "urgent"},
						},
						"description": map[string]any{
							"type": []any{"string", "null"},
						},
					},
					"required":             []any{"title", "date", "time", "type", "hours", "priority", "description"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"assignments"},
		"additionalProperties": false,
	},
}

func typeEnum() []any {
	out := make([]any, len(scheduler.AssignmentTypes))
	for i, t := range scheduler.AssignmentTypes {
		out[i] = string(t)
	}
	return out
}

const systemPrompt = `You extract graded coursework from course syllabi for a study planner.
Return every assignment, quiz, exam, paper, project, reading, lab, clinical
or other dated task. Use the course calendar to resolve dates; when a year is
missing pick the one that places the date nearest to today. Exams, midterms
and finals are high priority; optional or bonus work is low. Do not invent
tasks that are not in the text.`

// LLMParser extracts assignments with a language model.
type LLMParser struct {
	provider llm.Provider
	cfg      Config
	log      zerolog.Logger
}

func NewLLMParser(provider llm.Provider, cfg Config, log zerolog.Logger) *LLMParser {
	return &LLMParser{provider: provider, cfg: cfg, log: log}
}

// Parse sends text to the model. Output that fails schema validation is
// run through Sanitize before giving up, which rescues providers that wrap
// JSON in prose or code fences.
func (p *LLMParser) Parse(ctx context.Context, text string, now time.Time) ([]Draft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoAssignments
	}
	ctx = llm.WithPurpose(ctx, "syllabus")

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Today is %s.\n\n%s", now.Format("Monday, 2006-01-02"), text),
		}},
		Schema:      AssignmentListSchema,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	}

	var content json.RawMessage
	resp, err := p.provider.Generate(ctx, req)
	switch {
	case err == nil:
		content = resp.Content
	default:
		var inv *llm.ErrInvalidResponse
		if !errors.As(err, &inv) || len(inv.Content) == 0 {
			return nil, fmt.Errorf("syllabus extraction: %w", err)
		}
		cleaned, serr := Sanitize(string(inv.Content))
		if serr != nil {
			return nil, fmt.Errorf("syllabus extraction: %w", err)
		}
		p.log.Debug().Err(err).Msg("recovered model output with sanitizer")
		content = cleaned
	}

	drafts, err := decodeDrafts(content)
	if err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}

	kept := drafts[:0]
	for _, d := range drafts {
		d.Title = strings.TrimSpace(d.Title)
		if d.Title != "" {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoAssignments
	}
	return dedupeAndSort(kept), nil
}

// decodeDrafts accepts {"assignments": [...]} or a bare array.
func decodeDrafts(content json.RawMessage) ([]Draft, error) {
	trimmed := strings.TrimSpace(string(content))
	if strings.HasPrefix(trimmed, "[") {
		var drafts []Draft
		if err := json.Unmarshal(content, &drafts); err != nil {
			return nil, err
		}
		return drafts, nil
	}
	var out struct {
		Assignments []Draft `json:"assignments"`
	}
	if err := json.Unmarshal(content, &out); err != nil {
		return nil, err
	}
	return out.Assignments, nil
}
