package tables

import (
	"strings"
	"testing"
	"time"

	"github.com/studiora/studiora/internal/notify"
	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
)

func TestBlocks(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	out := Blocks([]scheduler.Block{{
		Title: "Study: Midterm", Kind: scheduler.KindStudy, Start: start, End: start.Add(2 * time.Hour),
		Hours: 2, Energy: scheduler.EnergyHigh, Suboptimal: true,
	}})

	for _, want := range []string{"Mon Mar 03", "09:00–11:00", "Study: Midterm", "study ⚠", "2.0h", "high"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatistics(t *testing.T) {
	stats := scheduler.Statistics{
		TotalHours:    7,
		AveragePerDay: 1,
		BlockCount:    4,
		ByType:        map[scheduler.BlockKind]float64{scheduler.KindStudy: 5, scheduler.KindReview: 2},
		ByCourse:      map[string]float64{"c1": 7},
		ByDay:         map[string]float64{"Sunday": 3},
	}
	out := Statistics(stats, map[string]string{"c1": "Pharmacology"})
	for _, want := range []string{"4 blocks", "7.0h total", "Pharmacology", "Sunday", "3.0h", "review"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAllocationsOrder(t *testing.T) {
	out := Allocations(map[string]scheduler.Allocation{
		"a": {Required: 4, Scheduled: 4},
		"b": {Required: 6, Scheduled: 2},
	}, map[string]string{"a": "Reading", "b": "Care plan"})

	if strings.Index(out, "Care plan") > strings.Index(out, "Reading") {
		t.Errorf("largest shortfall should come first:\n%s", out)
	}
	if !strings.Contains(out, "33%") || !strings.Contains(out, "100%") {
		t.Errorf("coverage missing:\n%s", out)
	}
}

func TestAssignmentsAndCourses(t *testing.T) {
	prio := 2
	courses := Courses([]store.Course{{ID: "nurs-210", Code: "NURS 210", Name: "Pharmacology", Priority: &prio}, {ID: "x", Name: "Elective"}})
	if !strings.Contains(courses, "NURS 210") || !strings.Contains(courses, "Elective") {
		t.Errorf("courses:\n%s", courses)
	}

	a := store.Assignment{Assignment: scheduler.Assignment{
		ID: "0123456789abcdef", Title: "Midterm", Due: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), DueTime: "09:00",
		Type: scheduler.TypeExam, Hours: 4, Priority: scheduler.PriorityHigh, Completed: true,
	}}
	out := Assignments([]store.Assignment{a})
	for _, want := range []string{"01234567", "2025-03-14 09:00", "Midterm", "exam", "4.0h", "✓"} {
		if !strings.Contains(out, want) {
			t.Errorf("assignments missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789") {
		t.Errorf("IDs should be shortened:\n%s", out)
	}
}

func TestLLMEventsCost(t *testing.T) {
	out := LLMEvents([]store.LLMEventRecord{
		{ID: 1, LLMRequestEventData: store.LLMRequestEventData{Model: "gpt-4o-mini", Purpose: "syllabus", InputTokens: 2000, OutputTokens: 1000, Success: true}},
		{ID: 2, LLMRequestEventData: store.LLMRequestEventData{Model: "unknown-model", Purpose: "syllabus"}},
	})
	if !strings.Contains(out, "$0.0009") {
		t.Errorf("missing cost:\n%s", out)
	}
	if !strings.Contains(out, "?") || !strings.Contains(out, "✗") {
		t.Errorf("missing unknown cost or failure marker:\n%s", out)
	}
}

func TestFormatCost(t *testing.T) {
	tests := map[float64]string{0.0042: "$0.0042", 1.5: "$1.50", 0: "$0.0000"}
	for in, want := range tests {
		if got := FormatCost(in); got != want {
			t.Errorf("FormatCost(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestLLMUsage(t *testing.T) {
	out := LLMUsage(
		[]store.LLMUsageStats{{Purpose: "syllabus", Calls: 2, InputTokens: 2000, OutputTokens: 1000, AvgLatencyMs: 850}},
		[]store.LLMModelUsage{
			{Model: "gpt-4o-mini", Calls: 1, InputTokens: 2000, OutputTokens: 1000},
			{Model: "homegrown-7b", Calls: 1},
		},
	)
	for _, want := range []string{"syllabus", "3000", "850", "gpt-4o-mini", "$0.0009", "homegrown-7b", "?", "TOTAL (partial)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLLMUsageWithoutModels(t *testing.T) {
	out := LLMUsage([]store.LLMUsageStats{{Purpose: "other", Calls: 1}}, nil)
	if strings.Contains(out, "Estimated cost") {
		t.Errorf("cost section should be omitted:\n%s", out)
	}
}

func TestReminders(t *testing.T) {
	at := time.Date(2025, 3, 3, 13, 45, 0, 0, time.UTC)
	out := Reminders([]notify.Reminder{{
		Key: "study:b1", Kind: notify.KindStudy, At: at,
		Title: "Study: Care plan", Body: "Study: Care plan in 15 minutes",
	}, {
		Key: "daily_summary:2025-03-04", Kind: notify.KindSummary, At: at.Add(18 * time.Hour),
		Title: "Daily summary", Body: "Today's Overview:\n1 assignments due",
	}})
	for _, want := range []string{"Mon Mar 03 13:45", "study", "Study: Care plan", "daily_summary", "Today's Overview: · 1 assignments due"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
