// Package week is the calendar screen: one week of study blocks, calendar
// events and deadlines.
package week

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studiora/studiora/internal/router"
	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/screens/detail"
	"github.com/studiora/studiora/internal/store"
	"github.com/studiora/studiora/internal/ui/components"
	"github.com/studiora/studiora/internal/ui/layout"
	"github.com/studiora/studiora/internal/ui/theme"
)

// Repos are the repositories the screen reads.
type Repos struct {
	Schedule    store.ScheduleRepo
	Assignments store.AssignmentRepo
	Events      store.EventRepo
}

type weekLoadedMsg struct {
	start       time.Time
	blocks      []scheduler.Block
	events      []store.Event
	assignments []store.Assignment
	err         error
}

// Screen shows the week starting on a Monday.
type Screen struct {
	repos Repos
	loc   *time.Location
	now   func() time.Time

	start       time.Time
	blocks      []scheduler.Block
	events      []store.Event
	assignments []store.Assignment
	selected    int
	loaded      bool
	errMsg      string

	prompting bool
	input     components.DateInput
}

var (
	_ router.Screen          = (*Screen)(nil)
	_ router.KeyHintProvider = (*Screen)(nil)
	_ router.StatusProvider  = (*Screen)(nil)
)

// New creates the screen showing the week that contains now().
func New(repos Repos, loc *time.Location, now func() time.Time) *Screen {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Screen{repos: repos, loc: loc, now: now, start: WeekStart(now(), loc)}
}

// WeekStart returns midnight of the Monday on or before t, in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
}

// Start is the first day shown.
func (s *Screen) Start() time.Time { return s.start }

func (s *Screen) Init() tea.Cmd {
	return s.load(s.start)
}

func (s *Screen) load(start time.Time) tea.Cmd {
	repos := s.repos
	return func() tea.Msg {
		ctx := context.Background()
		end := start.AddDate(0, 0, 7)
		msg := weekLoadedMsg{start: start}

		msg.blocks, msg.err = repos.Schedule.Blocks(ctx, start, end)
		if msg.err != nil {
			return msg
		}
		msg.events, msg.err = repos.Events.List(ctx, start, end)
		if msg.err != nil {
			return msg
		}
		// Assignment due dates are stored as UTC calendar dates.
		y, m, d := start.Date()
		from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		msg.assignments, msg.err = repos.Assignments.List(ctx, store.AssignmentFilter{
			IncludeCompleted: true,
			DueFrom:          from,
			DueTo:            from.AddDate(0, 0, 7),
		})
		return msg
	}
}

func (s *Screen) Title() string {
	end := s.start.AddDate(0, 0, 6)
	return fmt.Sprintf("Week of %s – %s", s.start.Format("Jan 02"), end.Format("Jan 02, 2006"))
}

// Status sums the study hours of the week.
func (s *Screen) Status() string {
	var total float64
	for _, b := range s.blocks {
		total += b.Hours
	}
	return fmt.Sprintf("%.1fh planned", total)
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.prompting {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Go"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "←→", Description: "Week"},
		{Key: "↑↓", Description: "Block"},
		{Key: "Enter", Description: "Details"},
		{Key: "t", Description: "Today"},
		{Key: "g", Description: "Go to date"},
		{Key: "q", Description: "Quit"},
	}
}

// Prompting reports whether the go-to-date input has focus.
func (s *Screen) Prompting() bool { return s.prompting }

func (s *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case weekLoadedMsg:
		if !msg.start.Equal(s.start) {
			return s, nil
		}
		s.loaded = true
		s.errMsg = ""
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		s.blocks, s.events, s.assignments = msg.blocks, msg.events, msg.assignments
		s.selected = min(s.selected, max(len(s.blocks)-1, 0))
		return s, nil

	case tea.KeyPressMsg:
		if s.prompting {
			return s.updatePrompt(msg)
		}
		switch msg.String() {
		case "left", "h":
			return s, s.goTo(s.start.AddDate(0, 0, -7))
		case "right", "l":
			return s, s.goTo(s.start.AddDate(0, 0, 7))
		case "t":
			return s, s.goTo(WeekStart(s.now(), s.loc))
		case "g":
			s.prompting = true
			s.input = components.NewDateInput(s.start.Format(time.DateOnly), s.loc)
			return s, s.input.Init()
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.blocks)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if s.selected < len(s.blocks) {
				b := s.blocks[s.selected]
				return s, router.Push(detail.New(b, s.assignmentFor(b.AssignmentID)))
			}
			return s, nil
		}
	}

	if s.prompting {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) updatePrompt(msg tea.KeyPressMsg) (router.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.prompting = false
		return s, nil
	case "enter":
		day, ok := s.input.Date()
		if !ok {
			return s, nil
		}
		s.prompting = false
		return s, s.goTo(WeekStart(day, s.loc))
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) goTo(start time.Time) tea.Cmd {
	if start.Equal(s.start) {
		return nil
	}
	s.start = start
	s.loaded = false
	s.selected = 0
	s.blocks, s.events, s.assignments = nil, nil, nil
	return s.load(start)
}

func (s *Screen) assignmentFor(id string) *store.Assignment {
	for i := range s.assignments {
		if s.assignments[i].ID == id {
			return &s.assignments[i]
		}
	}
	return nil
}

func (s *Screen) View(width, height int) string {
	var body string
	switch {
	case s.errMsg != "":
		body = theme.ErrorText.Render("Error: " + s.errMsg)
	case !s.loaded:
		body = theme.Hint.Render("Loading week...")
	case layout.IsCompactWidth(width):
		body = s.listView(width)
	default:
		body = s.columnsView(width)
	}
	if s.prompting {
		body = s.input.View() + "\n\n" + body
	}
	return lipgloss.NewStyle().MaxHeight(height).Render(body)
}

type dayItems struct {
	date   time.Time
	lines  []string
	hours  float64
	blocks int
}

func (s *Screen) days() [7]dayItems {
	var days [7]dayItems
	for i := range days {
		days[i].date = s.start.AddDate(0, 0, i)
	}
	index := s.dayIndex

	for _, a := range s.assignments {
		y, m, d := a.Due.Date()
		i := index(time.Date(y, m, d, 12, 0, 0, 0, s.loc))
		if i < 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(theme.PriorityColor(a.Priority))
		if a.Completed {
			style = theme.Done
		}
		days[i].lines = append(days[i].lines, style.Render("Due "+a.Title))
	}
	for _, e := range s.events {
		if i := index(e.Start); i >= 0 {
			days[i].lines = append(days[i].lines, theme.Hint.Render(e.Start.In(s.loc).Format("15:04")+" "+e.Title))
		}
	}
	for n, b := range s.blocks {
		i := index(b.Start)
		if i < 0 {
			continue
		}
		line := theme.Block(b)
		if n == s.selected {
			line = theme.Selected.Render(b.Start.In(s.loc).Format("15:04") + " " + b.Title)
		}
		days[i].lines = append(days[i].lines, line)
		days[i].hours += b.Hours
		days[i].blocks++
	}
	return days
}

// dayIndex returns the day of the shown week t falls on, or -1.
func (s *Screen) dayIndex(t time.Time) int {
	y, m, d := t.In(s.loc).Date()
	for i := range 7 {
		dy, dm, dd := s.start.AddDate(0, 0, i).Date()
		if y == dy && m == dm && d == dd {
			return i
		}
	}
	return -1
}

func (s *Screen) columnsView(width int) string {
	todayIdx := s.dayIndex(s.now())
	colWidth := max(width/7-2, 12)

	cols := make([]string, 0, 7)
	for i, d := range s.days() {
		header := theme.Title.Render(d.date.Format("Mon 02")) + " " + theme.Subtitle.Render(fmt.Sprintf("%.1fh", d.hours))
		content := header + "\n" + strings.Join(d.lines, "\n")
		style := theme.Card
		if i == todayIdx {
			style = theme.Today
		}
		cols = append(cols, style.Width(colWidth).Render(content))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (s *Screen) listView(width int) string {
	var b strings.Builder
	for _, d := range s.days() {
		b.WriteString(theme.Title.Render(d.date.Format("Monday, Jan 02")))
		fmt.Fprintf(&b, " %s\n", theme.Subtitle.Render(fmt.Sprintf("%d blocks, %.1fh", d.blocks, d.hours)))
		for _, line := range d.lines {
			b.WriteString("  " + line + "\n")
		}
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}
