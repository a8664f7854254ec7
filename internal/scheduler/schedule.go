package scheduler

import "time"

// Schedule is the output of one Generate call. It is owned by the caller.
type Schedule struct {
	Blocks []Block

	// Start and End are the first day of the run and the exclusive last
	// day, both at midnight.
	Start time.Time
	End   time.Time

	// Allocations maps assignment IDs to required versus placed study hours.
	Allocations map[string]Allocation
}

// Statistics aggregates the hours in a schedule.
type Statistics struct {
	TotalHours float64 `json:"totalHours"`

	// AveragePerDay divides TotalHours by seven regardless of the span
	// scheduled.
	AveragePerDay float64 `json:"averagePerDay"`

	ByType     map[BlockKind]float64 `json:"byType"`
	ByCourse   map[string]float64    `json:"byCourse"`
	ByDay      map[string]float64    `json:"byDay"` // weekday name
	BlockCount int                   `json:"blockCount"`
}

// Statistics aggregates the blocks of the schedule.
func (s *Schedule) Statistics() Statistics {
	stats := Statistics{
		ByType:   make(map[BlockKind]float64),
		ByCourse: make(map[string]float64),
		ByDay:    make(map[string]float64),
	}
	if s == nil {
		return stats
	}

	for _, b := range s.Blocks {
		stats.TotalHours += b.Hours
		stats.ByType[b.Kind] += b.Hours
		stats.ByCourse[b.CourseID] += b.Hours
		stats.ByDay[b.Start.Weekday().String()] += b.Hours
	}
	stats.AveragePerDay = stats.TotalHours / 7
	stats.BlockCount = len(s.Blocks)
	return stats
}

// BlocksOn returns the blocks that land on the given day.
func (s *Schedule) BlocksOn(day time.Time) []Block {
	if s == nil {
		return nil
	}
	key := dayKey(day)
	var out []Block
	for _, b := range s.Blocks {
		if dayKey(b.Date) == key {
			out = append(out, b)
		}
	}
	return out
}

// Calendar colors for exported blocks.
const (
	StudyColor  = "#000000"
	ReviewColor = "#7c3aed"
	TextColor   = "#ffffff"
)

// CalendarRecord is a display-ready block for calendar widgets.
type CalendarRecord struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Start           time.Time     `json:"start"`
	End             time.Time     `json:"end"`
	BackgroundColor string        `json:"backgroundColor"`
	TextColor       string        `json:"textColor"`
	ExtendedProps   CalendarProps `json:"extendedProps"`
}

// CalendarProps carries block metadata alongside a CalendarRecord.
type CalendarProps struct {
	Type            BlockKind      `json:"type"`
	AssignmentID    string         `json:"assignmentId"`
	CourseID        string         `json:"courseId"`
	Hours           float64        `json:"hours"`
	Priority        Priority       `json:"priority"`
	EnergyRequired  EnergyLevel    `json:"energyRequired"`
	AssignmentTitle string         `json:"assignmentTitle"`
	AssignmentType  AssignmentType `json:"assignmentType,omitempty"`
	Suboptimal      bool           `json:"suboptimal,omitempty"`
}

// ExportForCalendar converts the blocks to calendar records.
func (s *Schedule) ExportForCalendar() []CalendarRecord {
	if s == nil {
		return nil
	}
	return ExportBlocks(s.Blocks)
}

// ExportBlocks converts blocks to calendar records without touching them.
func ExportBlocks(blocks []Block) []CalendarRecord {
	out := make([]CalendarRecord, len(blocks))
	for i, b := range blocks {
		bg := StudyColor
		if b.Kind == KindReview {
			bg = ReviewColor
		}
		out[i] = CalendarRecord{
			ID:              b.ID,
			Title:           b.Title,
			Start:           b.Start,
			End:             b.End,
			BackgroundColor: bg,
			TextColor:       TextColor,
			ExtendedProps: CalendarProps{
				Type:            b.Kind,
				AssignmentID:    b.AssignmentID,
				CourseID:        b.CourseID,
				Hours:           b.Hours,
				Priority:        b.Priority,
				EnergyRequired:  b.Energy,
				AssignmentTitle: b.AssignmentTitle,
				AssignmentType:  b.AssignmentType,
				Suboptimal:      b.Suboptimal,
			},
		}
	}
	return out
}
