package scheduler

import (
	"maps"
	"sort"
	"time"
)

// Period names a time-of-day window.
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
	Evening   Period = "evening"
)

// periodOrder is the tie-break order for windows of equal weight.
var periodOrder = []Period{Morning, Afternoon, Evening}

// Window is a time-of-day range in whole hours. Weight orders windows when
// an assignment type has no preference of its own.
type Window struct {
	Start  int     `json:"start" yaml:"start"`
	End    int     `json:"end" yaml:"end"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Preferences is the engine's tunable configuration.
type Preferences struct {
	DailyMaxHours   float64 `json:"dailyMaxHours"`
	WeekendMaxHours float64 `json:"weekendMaxHours"`

	// BlockDuration is the largest chunk placed per assignment per day.
	BlockDuration float64 `json:"blockDuration"`

	Windows map[Period]Window `json:"preferredTimes"`

	// Energy scales the daily cap per weekday. 1.0 is unconstrained;
	// missing weekdays count as 1.0.
	Energy map[time.Weekday]float64 `json:"energyLevels"`

	BufferBeforeExam int     `json:"bufferBeforeExam"`
	ReviewPercentage float64 `json:"reviewPercentage"`

	// BreakBetweenBlocks is informational; no gap is enforced.
	BreakBetweenBlocks float64 `json:"breakBetweenBlocks"`
}

// DefaultPreferences returns the stock configuration.
func DefaultPreferences() Preferences {
	return Preferences{
		DailyMaxHours:   6,
		WeekendMaxHours: 4,
		BlockDuration:   1.5,
		Windows: map[Period]Window{
			Morning:   {Start: 8, End: 12, Weight: 1},
			Afternoon: {Start: 13, End: 17, Weight: 1},
			Evening:   {Start: 18, End: 22, Weight: 1},
		},
		Energy: map[time.Weekday]float64{
			time.Monday:    0.9,
			time.Tuesday:   1.0,
			time.Wednesday: 0.95,
			time.Thursday:  0.85,
			time.Friday:    0.7,
			time.Saturday:  0.8,
			time.Sunday:    0.9,
		},
		BufferBeforeExam:   2,
		ReviewPercentage:   0.2,
		BreakBetweenBlocks: 0.25,
	}
}

// PreferencesPatch carries a partial update. Nil fields are left alone;
// map fields replace the whole map.
type PreferencesPatch struct {
	DailyMaxHours      *float64
	WeekendMaxHours    *float64
	BlockDuration      *float64
	Windows            map[Period]Window
	Energy             map[time.Weekday]float64
	BufferBeforeExam   *int
	ReviewPercentage   *float64
	BreakBetweenBlocks *float64
}

// Apply returns p with the set fields of patch merged in.
func (p Preferences) Apply(patch PreferencesPatch) Preferences {
	out := p.clone()
	if patch.DailyMaxHours != nil {
		out.DailyMaxHours = *patch.DailyMaxHours
	}
	if patch.WeekendMaxHours != nil {
		out.WeekendMaxHours = *patch.WeekendMaxHours
	}
	if patch.BlockDuration != nil {
		out.BlockDuration = *patch.BlockDuration
	}
	if patch.Windows != nil {
		out.Windows = maps.Clone(patch.Windows)
	}
	if patch.Energy != nil {
		out.Energy = maps.Clone(patch.Energy)
	}
	if patch.BufferBeforeExam != nil {
		out.BufferBeforeExam = *patch.BufferBeforeExam
	}
	if patch.ReviewPercentage != nil {
		out.ReviewPercentage = *patch.ReviewPercentage
	}
	if patch.BreakBetweenBlocks != nil {
		out.BreakBetweenBlocks = *patch.BreakBetweenBlocks
	}
	return out
}

func (p Preferences) clone() Preferences {
	out := p
	out.Windows = maps.Clone(p.Windows)
	out.Energy = maps.Clone(p.Energy)
	return out
}

// EnergyFor returns the energy multiplier for the weekday of day.
func (p Preferences) EnergyFor(day time.Time) float64 {
	if e, ok := p.Energy[day.Weekday()]; ok {
		return e
	}
	return 1.0
}

// DailyCap returns the study hours allowed on day after energy scaling.
func (p Preferences) DailyCap(day time.Time) float64 {
	limit := p.DailyMaxHours
	if isWeekend(day) {
		limit = p.WeekendMaxHours
	}
	return limit * p.EnergyFor(day)
}

// periodsByWeight returns every configured window, heaviest first.
func (p Preferences) periodsByWeight() []Period {
	periods := make([]Period, 0, len(p.Windows))
	for _, name := range periodOrder {
		if _, ok := p.Windows[name]; ok {
			periods = append(periods, name)
		}
	}
	var extra []Period
	for name := range p.Windows {
		if !isStandardPeriod(name) {
			extra = append(extra, name)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	periods = append(periods, extra...)

	sort.SliceStable(periods, func(i, j int) bool {
		return p.Windows[periods[i]].Weight > p.Windows[periods[j]].Weight
	})
	return periods
}

// preferredWindows returns the windows tried first for an assignment type.
func (p Preferences) preferredWindows(t AssignmentType) []Window {
	periods, ok := preferredPeriods[t]
	if !ok {
		periods = p.periodsByWeight()
	}
	return p.windows(periods)
}

func (p Preferences) windows(periods []Period) []Window {
	out := make([]Window, 0, len(periods))
	for _, name := range periods {
		if w, ok := p.Windows[name]; ok {
			out = append(out, w)
		}
	}
	return out
}

func isStandardPeriod(name Period) bool {
	for _, p := range periodOrder {
		if p == name {
			return true
		}
	}
	return false
}

func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
