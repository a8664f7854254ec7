// Package syllabus extracts assignments from free-form course text.
package syllabus

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoAssignments is returned when a parser finds nothing to import.
var ErrNoAssignments = errors.New("no assignments found")

// Draft is an assignment record in the loose shape produced by parsers and
// stored in backup files. Empty fields are filled in by Normalize.
type Draft struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CourseID    string `json:"courseId,omitempty"`
	Type        string `json:"type,omitempty"`
	Date        string `json:"date,omitempty"` // YYYY-MM-DD
	Time        string `json:"time,omitempty"` // HH:MM
	Hours       Hours  `json:"hours,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Completed   bool   `json:"completed,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// Hours decodes from a JSON number or a numeric string. Anything else
// decodes as zero.
type Hours float64

func (h *Hours) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("hours: %w", err)
	}
	switch x := v.(type) {
	case float64:
		*h = Hours(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			f = 0
		}
		*h = Hours(f)
	default:
		*h = 0
	}
	return nil
}
