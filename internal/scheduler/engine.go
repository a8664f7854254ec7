package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// MinChunkHours is the smallest chunk worth placing.
	MinChunkHours = 0.5

	// ReviewBlockHours is the fixed length of a pre-exam review block.
	ReviewBlockHours = 2.0

	// StudyLookbackDays is how many days before the due date placement
	// starts. Exams add BufferBeforeExam on top.
	StudyLookbackDays = 3

	// SuboptimalEnergyThreshold is the day energy below which high-energy
	// blocks are flagged.
	SuboptimalEnergyThreshold = 0.8
)

// blockNamespace seeds name-based block IDs so reruns reproduce them.
var blockNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://studiora.app/blocks"))

// Engine allocates study blocks. It owns the preference set; schedules
// themselves are returned by value and never retained, so one Engine can
// serve concurrent callers.
type Engine struct {
	mu    sync.RWMutex
	prefs Preferences

	loc *time.Location
	log zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the time zone days and time-of-day windows are
// evaluated in. Default: time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger sets the logger used for placement diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithPreferences replaces the default preferences.
func WithPreferences(p Preferences) Option {
	return func(e *Engine) { e.prefs = p.clone() }
}

// New creates an Engine with default preferences.
func New(opts ...Option) *Engine {
	e := &Engine{
		prefs: DefaultPreferences(),
		loc:   time.Local,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Preferences returns a copy of the live preferences.
func (e *Engine) Preferences() Preferences {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.prefs.clone()
}

// UpdatePreferences merges patch into the live preferences. Values are not
// validated; a zero or negative cap simply yields no placement.
func (e *Engine) UpdatePreferences(patch PreferencesPatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs = e.prefs.Apply(patch)
}

// Location returns the time zone the engine schedules in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Input is everything a scheduling run needs.
type Input struct {
	// Assignments to place. Completed assignments are expected to be
	// filtered out by the caller.
	Assignments []Assignment
	Courses     []Course

	// Events are occupied intervals. Prior study output should be left
	// out so a rerun starts clean.
	Events []Event

	Start time.Time
	End   time.Time
}

// Generate builds a fresh schedule. It never fails: empty input yields an
// empty schedule and quota that does not fit is left unplaced.
func (e *Engine) Generate(in Input) *Schedule {
	r := &run{
		prefs:    e.Preferences(),
		loc:      e.loc,
		log:      e.log,
		start:    dayIn(in.Start.In(e.loc), e.loc),
		end:      dayIn(in.End.In(e.loc), e.loc),
		events:   in.Events,
		dayHours: make(map[string]float64),
	}

	sched := &Schedule{
		Start:       r.start,
		End:         r.end,
		Allocations: make(map[string]Allocation, len(in.Assignments)),
	}
	if len(in.Assignments) == 0 {
		return sched
	}

	ordered := Prioritize(in.Assignments, in.Courses)
	for _, a := range ordered {
		required := RequiredHours(a, r.prefs)
		scheduled := r.placeStudy(a, required)

		alloc := sched.Allocations[a.ID]
		alloc.Required += required
		alloc.Scheduled += scheduled
		sched.Allocations[a.ID] = alloc

		if scheduled < required {
			r.log.Debug().
				Str("assignment", a.ID).
				Float64("required", required).
				Float64("scheduled", scheduled).
				Msg("assignment partially scheduled")
		}
	}

	r.placeReviews(ordered)
	r.flagLowEnergy()

	sched.Blocks = r.blocks
	r.log.Debug().
		Int("assignments", len(in.Assignments)).
		Int("blocks", len(sched.Blocks)).
		Msg("schedule generated")
	return sched
}

// FindBestTimeSlot finds a conflict-free slot of the given length on day,
// preferring the windows favoured by assignmentType. It always returns a
// slot; when the day is full the fixed evening fallback is used.
func (e *Engine) FindBestTimeSlot(day time.Time, hours float64, events []Event, assignmentType AssignmentType) Slot {
	return findBestTimeSlot(e.Preferences(), e.loc, day, hours, events, assignmentType)
}

// run holds the mutable state of a single Generate call.
type run struct {
	prefs Preferences
	loc   *time.Location
	log   zerolog.Logger

	start, end time.Time
	events     []Event

	blocks   []Block
	dayHours map[string]float64
}

// placeStudy walks the days before the due date, placing at most one chunk
// per day, and returns the hours placed.
func (r *run) placeStudy(a Assignment, required float64) float64 {
	due := civilDay(a.Due, r.loc)

	lookback := StudyLookbackDays
	if a.Type == TypeExam {
		lookback += r.prefs.BufferBeforeExam
	}
	day := due.AddDate(0, 0, -lookback)
	if day.Before(r.start) {
		day = r.start
	}

	var scheduled float64
	for scheduled < required && day.Before(due) && day.Before(r.end) {
		capacity := r.prefs.DailyCap(day)
		used := r.dayHours[dayKey(day)]

		if used < capacity {
			chunk := min(r.prefs.BlockDuration, required-scheduled, capacity-used)
			if chunk >= MinChunkHours {
				slot := findBestTimeSlot(r.prefs, r.loc, day, chunk, r.busy(), a.Type)
				r.add(Block{
					AssignmentID:    a.ID,
					CourseID:        a.CourseID,
					Title:           "Study: " + a.Title,
					AssignmentTitle: a.Title,
					AssignmentType:  a.Type,
					Kind:            KindStudy,
					Date:            slot.Date,
					Start:           slot.Start,
					End:             slot.End,
					Hours:           chunk,
					Priority:        a.Priority,
					Energy:          EnergyRequired(a.Type),
				})
				scheduled += chunk
			}
		}

		day = day.AddDate(0, 0, 1)
	}
	return scheduled
}

// placeReviews adds fixed-length review blocks on the days before each
// exam. Reviews are not checked against the daily cap. Days are whole: a
// review on the start day may take a slot earlier than Start.
func (r *run) placeReviews(ordered []Assignment) {
	for _, a := range ordered {
		if a.Type != TypeExam {
			continue
		}
		due := civilDay(a.Due, r.loc)
		for i := 1; i <= r.prefs.BufferBeforeExam; i++ {
			day := due.AddDate(0, 0, -i)
			if day.Before(r.start) || !day.Before(r.end) {
				continue
			}
			slot := findBestTimeSlot(r.prefs, r.loc, day, ReviewBlockHours, r.busy(), TypeReview)
			r.add(Block{
				AssignmentID:    a.ID,
				CourseID:        a.CourseID,
				Title:           "Review: " + a.Title,
				AssignmentTitle: a.Title,
				AssignmentType:  a.Type,
				Kind:            KindReview,
				Date:            slot.Date,
				Start:           slot.Start,
				End:             slot.End,
				Hours:           ReviewBlockHours,
				Priority:        PriorityHigh,
				Energy:          EnergyRequired(TypeReview),
			})
		}
	}
}

// flagLowEnergy marks high-energy blocks placed on low-energy days. The
// blocks are not moved.
func (r *run) flagLowEnergy() {
	for i := range r.blocks {
		b := &r.blocks[i]
		if b.Energy != EnergyHigh {
			continue
		}
		if r.prefs.EnergyFor(b.Start.In(r.loc)) < SuboptimalEnergyThreshold {
			b.Suboptimal = true
		}
	}
}

func (r *run) add(b Block) {
	n := len(r.blocks)
	b.ID = uuid.NewSHA1(blockNamespace,
		[]byte(fmt.Sprintf("%s/%s/%s/%d", b.Kind, b.AssignmentID, dayKey(b.Date), n))).String()
	r.blocks = append(r.blocks, b)
	r.dayHours[dayKey(b.Start.In(r.loc))] += b.Hours
}

// busy returns the caller's events plus every block placed so far, so
// earlier assignments keep the slots they claimed.
func (r *run) busy() []Event {
	out := make([]Event, 0, len(r.events)+len(r.blocks))
	out = append(out, r.events...)
	for _, b := range r.blocks {
		out = append(out, Event{Title: b.Title, Start: b.Start, End: b.End})
	}
	return out
}

// dayIn truncates t to midnight in loc.
func dayIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// civilDay reads the calendar date of t as written and pins it to midnight
// in loc.
func civilDay(t time.Time, loc *time.Location) time.Time {
	return dayIn(t, loc)
}

func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
