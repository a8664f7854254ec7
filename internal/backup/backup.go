// Package backup exports and imports the planner's data as a single JSON
// document.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"

	"github.com/studiora/studiora/internal/store"
	"github.com/studiora/studiora/internal/syllabus"
)

// Version is the format version written by Export.
const Version = "1.0.0"

const appName = "Studiora Nursing Planner"

var (
	// ErrInvalidFormat is returned for documents that are not backups.
	ErrInvalidFormat = errors.New("invalid backup file format")

	// ErrIncompatibleVersion is returned when the major version differs.
	ErrIncompatibleVersion = errors.New("incompatible backup version")
)

// SettingsKeys are the settings documents included in a backup.
var SettingsKeys = []string{store.KeySchedulerPreferences}

// Course is the backup representation of a course.
type Course struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	Priority *int   `json:"priority,omitempty"`
}

type Metadata struct {
	TotalCourses     int    `json:"totalCourses"`
	TotalAssignments int    `json:"totalAssignments"`
	AppName          string `json:"appName"`
}

// File is the on-disk document.
type File struct {
	Version     string                     `json:"version"`
	ExportDate  time.Time                  `json:"exportDate"`
	Courses     []Course                   `json:"courses"`
	Assignments []syllabus.Draft           `json:"assignments"`
	Settings    map[string]json.RawMessage `json:"settings"`
	Metadata    Metadata                   `json:"metadata"`
}

// Repos are the repositories a backup reads from and writes to.
type Repos struct {
	Courses     store.CourseRepo
	Assignments store.AssignmentRepo
	Settings    store.SettingsRepo
}

// Summary reports what an import wrote.
type Summary struct {
	Version     string
	Courses     int
	Assignments int
	Settings    int
}

// Export writes every course, assignment and known setting to w.
func Export(ctx context.Context, repos Repos, w io.Writer, now time.Time) error {
	courses, err := repos.Courses.List(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	assignments, err := repos.Assignments.List(ctx, store.AssignmentFilter{IncludeCompleted: true})
	if err != nil {
		return fmt.Errorf("list assignments: %w", err)
	}

	f := File{
		Version:     Version,
		ExportDate:  now.UTC(),
		Courses:     make([]Course, 0, len(courses)),
		Assignments: make([]syllabus.Draft, 0, len(assignments)),
		Settings:    make(map[string]json.RawMessage),
	}
	for _, c := range courses {
		f.Courses = append(f.Courses, Course{ID: c.ID, Name: c.Name, Code: c.Code, Priority: c.Priority})
	}
	for _, a := range assignments {
		f.Assignments = append(f.Assignments, syllabus.FromAssignment(a))
	}
	for _, key := range SettingsKeys {
		var raw json.RawMessage
		ok, err := repos.Settings.Get(ctx, key, &raw)
		if err != nil {
			return fmt.Errorf("read setting %s: %w", key, err)
		}
		if ok {
			f.Settings[key] = raw
		}
	}
	f.Metadata = Metadata{
		TotalCourses:     len(f.Courses),
		TotalAssignments: len(f.Assignments),
		AppName:          appName,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Decode reads and validates a backup document. A version with a different
// minor or patch number is accepted with a warning.
func Decode(r io.Reader, log zerolog.Logger) (*File, error) {
	var probe struct {
		Version     string          `json:"version"`
		Courses     json.RawMessage `json:"courses"`
		Assignments json.RawMessage `json:"assignments"`
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if probe.Version == "" || isNull(probe.Courses) || isNull(probe.Assignments) {
		return nil, fmt.Errorf("%w: version, courses and assignments are required", ErrInvalidFormat)
	}
	if err := checkVersion(probe.Version, log); err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return &f, nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

func checkVersion(v string, log zerolog.Logger) error {
	got := "v" + strings.TrimPrefix(v, "v")
	if !semver.IsValid(got) {
		return fmt.Errorf("%w: version %q", ErrInvalidFormat, v)
	}
	want := "v" + Version
	if semver.Major(got) != semver.Major(want) {
		return fmt.Errorf("%w: file is %s, expected %s.x", ErrIncompatibleVersion, v, semver.Major(want)[1:])
	}
	if semver.Compare(got, want) != 0 {
		log.Warn().Str("file_version", v).Str("version", Version).Msg("importing backup from a different version")
	}
	return nil
}

// Import reads a backup from r and upserts its contents. Records already in
// the database with the same ID are overwritten; nothing is deleted.
func Import(ctx context.Context, repos Repos, r io.Reader, now time.Time, log zerolog.Logger) (*Summary, error) {
	f, err := Decode(r, log)
	if err != nil {
		return nil, err
	}
	assignments, err := syllabus.Normalize(f.Assignments, "", now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	sum := &Summary{Version: f.Version}
	for _, c := range f.Courses {
		course := &store.Course{ID: c.ID, Name: c.Name, Code: c.Code, Priority: c.Priority}
		if course.ID == "" {
			course.ID = uuid.NewString()
		}
		if course.Name == "" {
			course.Name = course.ID
		}
		if err := repos.Courses.Upsert(ctx, course); err != nil {
			return sum, fmt.Errorf("import course %s: %w", course.ID, err)
		}
		sum.Courses++
	}
	for i := range assignments {
		if err := repos.Assignments.Upsert(ctx, &assignments[i]); err != nil {
			return sum, fmt.Errorf("import assignment %s: %w", assignments[i].ID, err)
		}
		sum.Assignments++
	}
	for key, raw := range f.Settings {
		if isNull(raw) {
			continue
		}
		if err := repos.Settings.Put(ctx, key, raw); err != nil {
			return sum, fmt.Errorf("import setting %s: %w", key, err)
		}
		sum.Settings++
	}

	log.Info().
		Str("version", f.Version).
		Int("courses", sum.Courses).
		Int("assignments", sum.Assignments).
		Msg("backup imported")
	return sum, nil
}
