package syllabus

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
)

// Defaults applied by Normalize.
const (
	DefaultTitle    = "Untitled Assignment"
	DefaultDueTime  = "23:59"
	DefaultHours    = 2.0
	DefaultType     = scheduler.TypeAssignment
	DefaultPriority = scheduler.PriorityMedium
)

var clockRE = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Normalize converts drafts into storable assignments. Missing fields get
// the package defaults, drafts without a course take courseID, and drafts
// without an ID get a random one. A missing date means today; a date that
// does not parse is an error.
func Normalize(drafts []Draft, courseID string, now time.Time) ([]store.Assignment, error) {
	out := make([]store.Assignment, 0, len(drafts))
	for i, d := range drafts {
		a, err := normalizeOne(d, courseID, now)
		if err != nil {
			return nil, fmt.Errorf("assignment %d (%q): %w", i+1, d.Title, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func normalizeOne(d Draft, courseID string, now time.Time) (store.Assignment, error) {
	var a store.Assignment

	a.ID = strings.TrimSpace(d.ID)
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Title = strings.TrimSpace(d.Title)
	if a.Title == "" {
		a.Title = DefaultTitle
	}
	a.Description = d.Description
	a.CourseID = d.CourseID
	if a.CourseID == "" {
		a.CourseID = courseID
	}

	a.Due = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if s := strings.TrimSpace(d.Date); s != "" {
		// Backups written by other tools may carry a full timestamp.
		if len(s) > len(time.DateOnly) {
			s = s[:len(time.DateOnly)]
		}
		due, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return a, fmt.Errorf("invalid date %q", d.Date)
		}
		a.Due = due
	}

	a.DueTime = DefaultDueTime
	if t := strings.TrimSpace(d.Time); clockRE.MatchString(t) {
		a.DueTime = t
	}

	a.Type = normalizeType(d.Type)
	a.Hours = float64(d.Hours)
	if a.Hours <= 0 {
		a.Hours = DefaultHours
	}
	a.Priority = normalizePriority(d.Priority)
	a.Completed = d.Completed

	if t, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
		a.CreatedAt = t
	} else {
		a.CreatedAt = now
	}
	return a, nil
}

func normalizeType(s string) scheduler.AssignmentType {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultType
	}
	for _, t := range scheduler.AssignmentTypes {
		if string(t) == s {
			return t
		}
	}
	return scheduler.TypeOther
}

func normalizePriority(s string) scheduler.Priority {
	switch p := scheduler.Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case scheduler.PriorityLow, scheduler.PriorityMedium, scheduler.PriorityHigh, scheduler.PriorityUrgent:
		return p
	}
	return DefaultPriority
}

// FromAssignment is the inverse of Normalize, used when exporting.
func FromAssignment(a store.Assignment) Draft {
	d := Draft{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		CourseID:    a.CourseID,
		Type:        string(a.Type),
		Date:        a.Due.Format(time.DateOnly),
		Time:        a.DueTime,
		Hours:       Hours(a.Hours),
		Priority:    string(a.Priority),
		Completed:   a.Completed,
	}
	if !a.CreatedAt.IsZero() {
		d.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	return d
}
