package store

import (
	"context"
	"errors"
	"time"

	"github.com/studiora/studiora/internal/scheduler"
)

// ErrNotFound is returned when a record looked up by ID does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Course is a stored course.
type Course struct {
	ID        string
	Name      string
	Code      string
	Priority  *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Scheduler returns the fields the scheduling engine reads.
func (c Course) Scheduler() scheduler.Course {
	return scheduler.Course{ID: c.ID, Name: c.Name, Priority: c.Priority}
}

// Assignment is a stored assignment. Due is returned as midnight UTC of the
// stored calendar date.
type Assignment struct {
	scheduler.Assignment
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssignmentFilter narrows AssignmentRepo.List.
type AssignmentFilter struct {
	CourseID         string
	IncludeCompleted bool
	DueFrom          time.Time // zero = unbounded
	DueTo            time.Time // exclusive; zero = unbounded
}

// Event is a stored calendar commitment that study time must avoid.
type Event struct {
	ID       string
	Location string
	scheduler.Event
}

// ScheduleRun records one generated schedule.
type ScheduleRun struct {
	Sequence    int64
	Timestamp   time.Time
	Start       time.Time
	End         time.Time
	Stats       scheduler.Statistics
	Allocations map[string]scheduler.Allocation
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM requests by purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates LLM requests by model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// CourseRepo manages courses.
type CourseRepo interface {
	Upsert(ctx context.Context, c *Course) error
	Get(ctx context.Context, id string) (*Course, error)
	List(ctx context.Context) ([]Course, error)

	// Delete removes the course and its assignments.
	Delete(ctx context.Context, id string) error
}

// AssignmentRepo manages assignments.
type AssignmentRepo interface {
	Upsert(ctx context.Context, a *Assignment) error
	Get(ctx context.Context, id string) (*Assignment, error)
	List(ctx context.Context, f AssignmentFilter) ([]Assignment, error)
	SetCompleted(ctx context.Context, id string, completed bool) error
	Delete(ctx context.Context, id string) error
}

// EventRepo manages calendar events and appends LLM request events.
type EventRepo interface {
	Add(ctx context.Context, ev *Event) error

	// List returns events overlapping [from, to), expressed in the
	// location of from.
	List(ctx context.Context, from, to time.Time) ([]Event, error)
	Delete(ctx context.Context, id string) error

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)

	// GetLLMEvent returns nil when the event does not exist.
	GetLLMEvent(ctx context.Context, id int64) (*LLMEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}

// ScheduleRepo stores generated schedules. Each save replaces every
// previously stored block.
type ScheduleRepo interface {
	Replace(ctx context.Context, sched *scheduler.Schedule, at time.Time) (*ScheduleRun, error)

	// Blocks returns blocks starting in [from, to), expressed in the
	// location of from.
	Blocks(ctx context.Context, from, to time.Time) ([]scheduler.Block, error)

	// LatestRun returns nil when nothing has been generated yet.
	LatestRun(ctx context.Context) (*ScheduleRun, error)

	// PruneRuns deletes all but the keep most recent runs.
	PruneRuns(ctx context.Context, keep int) error
}

// SettingsRepo stores JSON documents by key.
type SettingsRepo interface {
	// Get decodes the value for key into v and reports whether it existed.
	Get(ctx context.Context, key string, v any) (bool, error)
	Put(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

// ReminderLog remembers which reminders were delivered.
type ReminderLog interface {
	// MarkSent records key and reports false when it was already recorded.
	MarkSent(ctx context.Context, key string, at time.Time) (bool, error)
	WasSent(ctx context.Context, key string) (bool, error)

	// Prune forgets reminders sent before the given time.
	Prune(ctx context.Context, before time.Time) error
}
