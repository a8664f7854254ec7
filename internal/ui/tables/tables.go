// Package tables renders command output as lipgloss tables.
package tables

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/studiora/studiora/internal/llm"
	"github.com/studiora/studiora/internal/notify"
	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
	"github.com/studiora/studiora/internal/ui/components"
	"github.com/studiora/studiora/internal/ui/theme"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			return theme.TableCell
		})
}

func hours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

// Blocks lists study blocks in time order.
func Blocks(blocks []scheduler.Block) string {
	t := newTable("Day", "Time", "Block", "Kind", "Hours", "Energy")
	for _, b := range blocks {
		kind := string(b.Kind)
		if b.Suboptimal {
			kind += " ⚠"
		}
		t.Row(
			b.Start.Format("Mon Jan 02"),
			b.Start.Format("15:04")+"–"+b.End.Format("15:04"),
			b.Title,
			kind,
			hours(b.Hours),
			string(b.Energy),
		)
	}
	return t.String()
}

// Statistics renders totals and per-course, per-kind and per-weekday hours.
// courseNames maps course IDs to display names.
func Statistics(stats scheduler.Statistics, courseNames map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %d blocks, %s total, %s per day\n",
		theme.Title.Render("Schedule"), stats.BlockCount, hours(stats.TotalHours), hours(stats.AveragePerDay))

	kinds := newTable("Kind", "Hours")
	for _, k := range []scheduler.BlockKind{scheduler.KindStudy, scheduler.KindReview} {
		kinds.Row(string(k), hours(stats.ByType[k]))
	}

	courses := newTable("Course", "Hours")
	for _, id := range sortedKeys(stats.ByCourse) {
		name := courseNames[id]
		if name == "" {
			name = id
		}
		if name == "" {
			name = "(none)"
		}
		courses.Row(name, hours(stats.ByCourse[id]))
	}

	days := newTable("Day", "Hours")
	for d := time.Monday; d <= time.Saturday+1; d++ {
		wd := d % 7
		days.Row(wd.String(), hours(stats.ByDay[wd.String()]))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, kinds.String(), " ", courses.String(), " ", days.String()))
	return b.String()
}

// Allocations compares required and scheduled hours per assignment, worst
// shortfall first. titles maps assignment IDs to titles.
func Allocations(allocs map[string]scheduler.Allocation, titles map[string]string) string {
	ids := sortedKeys(allocs)
	sort.SliceStable(ids, func(i, j int) bool {
		return allocs[ids[i]].Shortfall() > allocs[ids[j]].Shortfall()
	})

	t := newTable("Assignment", "Required", "Scheduled", "Coverage")
	for _, id := range ids {
		a := allocs[id]
		title := titles[id]
		if title == "" {
			title = id
		}
		bar := components.NewProgressBar("", components.Ratio(a.Scheduled, a.Required), true, 24)
		t.Row(title, hours(a.Required), hours(a.Scheduled), bar.View())
	}
	return t.String()
}

// Courses lists courses.
func Courses(courses []store.Course) string {
	t := newTable("ID", "Code", "Name", "Priority")
	for _, c := range courses {
		prio := "-"
		if c.Priority != nil {
			prio = fmt.Sprint(*c.Priority)
		}
		t.Row(c.ID, c.Code, c.Name, prio)
	}
	return t.String()
}

// Assignments lists assignments with their due date and status.
func Assignments(assignments []store.Assignment) string {
	t := newTable("ID", "Due", "Title", "Type", "Hours", "Priority", "Done").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			if col == 5 && row < len(assignments) {
				return theme.TableCell.Foreground(theme.PriorityColor(assignments[row].Priority))
			}
			return theme.TableCell
		})
	for _, a := range assignments {
		done := ""
		if a.Completed {
			done = "✓"
		}
		due := a.Due.Format(time.DateOnly)
		if a.DueTime != "" {
			due += " " + a.DueTime
		}
		t.Row(shortID(a.ID), due, a.Title, string(a.Type), hours(a.Hours), string(a.Priority), done)
	}
	return t.String()
}

// Events lists calendar events.
func Events(events []store.Event) string {
	t := newTable("ID", "Start", "End", "Title", "Location")
	for _, e := range events {
		end := "-"
		if !e.End.IsZero() {
			end = e.End.Format("15:04")
		}
		t.Row(shortID(e.ID), e.Start.Format("Mon Jan 02 15:04"), end, e.Title, e.Location)
	}
	return t.String()
}

// LLMEvents lists recorded model requests with an estimated cost column.
func LLMEvents(events []store.LLMEventRecord) string {
	t := newTable("ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "Cost", "OK")
	for _, e := range events {
		ok := "✓"
		if !e.Success {
			ok = "✗"
		}
		cost := "?"
		if c := llm.LookupCost(e.Model); c != nil {
			cost = FormatCost(c.Cost(e.InputTokens, e.OutputTokens))
		}
		t.Row(
			fmt.Sprint(e.ID),
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Purpose,
			truncate(e.Model, 28),
			fmt.Sprint(e.InputTokens),
			fmt.Sprint(e.OutputTokens),
			fmt.Sprint(e.LatencyMs),
			cost,
			ok,
		)
	}
	return t.String()
}

// LLMUsage renders token usage per purpose followed by estimated cost per
// model. Models without known pricing are listed with a "?" cost and the
// total is marked partial.
func LLMUsage(byPurpose []store.LLMUsageStats, byModel []store.LLMModelUsage) string {
	t := newTable("Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
	var calls, in, out int
	for _, st := range byPurpose {
		t.Row(st.Purpose, fmt.Sprint(st.Calls), fmt.Sprint(st.InputTokens), fmt.Sprint(st.OutputTokens),
			fmt.Sprint(st.InputTokens+st.OutputTokens), fmt.Sprint(st.AvgLatencyMs))
		calls += st.Calls
		in += st.InputTokens
		out += st.OutputTokens
	}
	t.Row("TOTAL", fmt.Sprint(calls), fmt.Sprint(in), fmt.Sprint(out), fmt.Sprint(in+out), "")

	var b strings.Builder
	b.WriteString(theme.Subtitle.Render("Usage by purpose"))
	b.WriteString("\n")
	b.WriteString(t.String())

	if len(byModel) == 0 {
		return b.String()
	}
	m := newTable("Model", "Calls", "Input", "Output", "Cost")
	var total float64
	partial := false
	for _, mu := range byModel {
		cost := "?"
		if c := llm.LookupCost(mu.Model); c != nil {
			usd := c.Cost(mu.InputTokens, mu.OutputTokens)
			total += usd
			cost = FormatCost(usd)
		} else {
			partial = true
		}
		m.Row(truncate(mu.Model, 32), fmt.Sprint(mu.Calls), fmt.Sprint(mu.InputTokens), fmt.Sprint(mu.OutputTokens), cost)
	}
	label := "TOTAL"
	if partial {
		label = "TOTAL (partial)"
	}
	m.Row(label, "", "", "", FormatCost(total))

	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Render("Estimated cost (USD)"))
	b.WriteString("\n")
	b.WriteString(m.String())
	return b.String()
}

// Reminders lists planned notifications in delivery order.
func Reminders(rs []notify.Reminder) string {
	t := newTable("At", "Kind", "Title", "Message")
	for _, r := range rs {
		t.Row(
			r.At.Format("Mon Jan 02 15:04"),
			string(r.Kind),
			truncate(r.Title, 40),
			truncate(strings.ReplaceAll(r.Body, "\n", " · "), 60),
		)
	}
	return t.String()
}

// FormatCost prints small amounts with extra precision.
func FormatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// shortID keeps tables narrow; commands accept any unique prefix.
func shortID(id string) string {
	return truncate(id, 8)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
