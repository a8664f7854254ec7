// Package notify plans and delivers study and deadline reminders.
package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/studiora/studiora/internal/config"
	"github.com/studiora/studiora/internal/scheduler"
)

// Kind identifies what a reminder is about.
type Kind string

const (
	KindStudy   Kind = "study"
	KindDue24h  Kind = "assign_24h"
	KindDue3h   Kind = "assign_3h"
	KindDue1h   Kind = "assign_1h"
	KindSummary Kind = "daily_summary"
)

// Reminder is one planned notification. Key is stable across plans and is
// used to avoid sending the same reminder twice.
type Reminder struct {
	Key   string
	Kind  Kind
	At    time.Time
	Title string
	Body  string
}

// Settings selects which reminders are planned.
type Settings struct {
	Enabled             bool
	StudyReminders      bool
	AssignmentReminders bool
	DailySummary        bool
	SummaryHour         int
	SummaryMinute       int
	ReminderMinutes     int
	PerMinute           int
}

// SettingsFrom converts the notify section of the config file.
func SettingsFrom(cfg config.NotifyConfig) Settings {
	h, m := cfg.DailySummaryClock()
	return Settings{
		Enabled:             cfg.Enabled,
		StudyReminders:      cfg.StudyReminders,
		AssignmentReminders: cfg.AssignmentReminders,
		DailySummary:        cfg.DailySummary,
		SummaryHour:         h,
		SummaryMinute:       m,
		ReminderMinutes:     cfg.ReminderMinutes,
		PerMinute:           cfg.PerMinute,
	}
}

var deadlineOffsets = []struct {
	kind     Kind
	before   time.Duration
	highOnly bool
	title    string
	body     string
}{
	{KindDue24h, 24 * time.Hour, false, "Assignment Due Tomorrow", "%s is due in 24 hours"},
	{KindDue3h, 3 * time.Hour, false, "Assignment Due Soon", "%s is due in 3 hours"},
	{KindDue1h, time.Hour, true, "High Priority Due Soon", "%s is due in 1 hour!"},
}

// Plan returns every reminder after now, ordered by time. Times are
// computed in now's location.
func Plan(blocks []scheduler.Block, assignments []scheduler.Assignment, s Settings, now time.Time) []Reminder {
	if !s.Enabled {
		return nil
	}

	var out []Reminder
	if s.StudyReminders {
		lead := time.Duration(s.ReminderMinutes) * time.Minute
		for _, b := range blocks {
			out = append(out, Reminder{
				Key:   string(KindStudy) + ":" + b.ID,
				Kind:  KindStudy,
				At:    b.Start.Add(-lead),
				Title: "Study Session Starting Soon",
				Body:  fmt.Sprintf("%s in %d minutes", b.Title, s.ReminderMinutes),
			})
		}
	}

	if s.AssignmentReminders {
		for _, a := range assignments {
			if a.Completed {
				continue
			}
			due := DueAt(a, now.Location())
			for _, o := range deadlineOffsets {
				if o.highOnly && a.Priority != scheduler.PriorityHigh {
					continue
				}
				out = append(out, Reminder{
					Key:   string(o.kind) + ":" + a.ID,
					Kind:  o.kind,
					At:    due.Add(-o.before),
					Title: o.title,
					Body:  fmt.Sprintf(o.body, a.Title),
				})
			}
		}
	}

	if s.DailySummary {
		out = append(out, Summary(NextSummaryTime(s, now), blocks, assignments))
	}

	kept := out[:0]
	for _, r := range out {
		if r.At.After(now) {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if !kept[i].At.Equal(kept[j].At) {
			return kept[i].At.Before(kept[j].At)
		}
		return kept[i].Key < kept[j].Key
	})
	return kept
}

// DueAt combines the due date and due time of a in loc. A missing or
// malformed time means end of day.
func DueAt(a scheduler.Assignment, loc *time.Location) time.Time {
	hour, minute := 23, 59
	if t, err := time.Parse("15:04", a.DueTime); err == nil {
		hour, minute = t.Hour(), t.Minute()
	}
	y, m, d := a.Due.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

// NextSummaryTime is today's summary time, or tomorrow's once it has passed.
func NextSummaryTime(s Settings, now time.Time) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), s.SummaryHour, s.SummaryMinute, 0, 0, now.Location())
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// Summary builds the overview sent at the given time for that day.
func Summary(at time.Time, blocks []scheduler.Block, assignments []scheduler.Assignment) Reminder {
	y, m, d := at.Date()
	sameDay := func(t time.Time) bool {
		ty, tm, td := t.In(at.Location()).Date()
		return ty == y && tm == m && td == d
	}

	var due, high []string
	for _, a := range assignments {
		ay, am, ad := a.Due.Date()
		if a.Completed || ay != y || am != m || ad != d {
			continue
		}
		due = append(due, a.Title)
		if a.Priority == scheduler.PriorityHigh {
			high = append(high, a.Title)
		}
	}
	var sessions int
	var hours float64
	for _, b := range blocks {
		if sameDay(b.Start) {
			sessions++
			hours += b.Hours
		}
	}

	var body strings.Builder
	body.WriteString("Today's Overview:\n")
	fmt.Fprintf(&body, "%d assignments due\n", len(due))
	fmt.Fprintf(&body, "%d study sessions (%.1fh total)", sessions, hours)
	if len(high) > 0 {
		fmt.Fprintf(&body, "\nHigh Priority: %s", strings.Join(high, ", "))
	}

	return Reminder{
		Key:   string(KindSummary) + ":" + at.Format(time.DateOnly),
		Kind:  KindSummary,
		At:    at,
		Title: "Good Morning! Here's Your Day",
		Body:  body.String(),
	}
}
