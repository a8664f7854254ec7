package syllabus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

const sampleSyllabus = `NURS 210 Pharmacology - Spring 2025

Week 2 (3/10/2025)
- Reading: Chapter 4 Pharmacokinetics
- Quiz 2 due 5:00 PM

Week 3
March 17, 2025
* Discussion post on dosage errors
Midterm exam 9am

Lecture notes are posted weekly.
Final project presentation 24 April 2025
Optional bonus worksheet`

func TestParseText(t *testing.T) {
	drafts := ParseText(sampleSyllabus, now)

	byTitle := make(map[string]Draft)
	for _, d := range drafts {
		byTitle[d.Title] = d
	}

	tests := []struct {
		title    string
		date     string
		time     string
		typ      string
		hours    Hours
		priority string
	}{
		{"Reading: Chapter 4 Pharmacokinetics", "2025-03-10", "23:59", "reading", 2, "medium"},
		{"2 due 5:00 PM", "2025-03-10", "17:00", "quiz", 1, "high"},
		{"Discussion post on dosage errors", "2025-03-17", "23:59", "discussion", 1, "medium"},
		{"Midterm exam 9am", "2025-03-17", "09:00", "exam", 3, "high"},
		{"Final project presentation 24 April 2025", "2025-04-24", "23:59", "project", 9, "high"},
		{"Optional bonus worksheet", "2025-04-24", "23:59", "assignment", 2, "low"},
	}
	for _, tt := range tests {
		d, ok := byTitle[tt.title]
		if !assert.True(t, ok, "missing %q in %+v", tt.title, drafts) {
			continue
		}
		assert.Equal(t, tt.date, d.Date, tt.title)
		assert.Equal(t, tt.time, d.Time, tt.title)
		assert.Equal(t, tt.typ, d.Type, tt.title)
		assert.Equal(t, tt.hours, d.Hours, tt.title)
		assert.Equal(t, tt.priority, d.Priority, tt.title)
	}

	for i := 1; i < len(drafts); i++ {
		assert.LessOrEqual(t, drafts[i-1].Date, drafts[i].Date, "drafts not sorted by date")
	}
	_, ok := byTitle["Lecture notes are posted weekly."]
	assert.False(t, ok, "line without a keyword became an assignment")
}

func TestParseText_QuizLineKeepsQuizType(t *testing.T) {
	drafts := ParseText("Pharm quiz 3 on 3/12/25 at 2:30 pm", now)
	require.Len(t, drafts, 1)
	assert.Equal(t, "quiz", drafts[0].Type)
	assert.Equal(t, "2025-03-12", drafts[0].Date)
	assert.Equal(t, "14:30", drafts[0].Time)
	assert.Equal(t, "high", drafts[0].Priority)
	assert.Equal(t, Hours(1), drafts[0].Hours)
}

func TestParseText_DefaultDate(t *testing.T) {
	drafts := ParseText("Submit care plan", now)
	require.Len(t, drafts, 1)
	assert.Equal(t, "care plan", drafts[0].Title)
	assert.Equal(t, "2025-03-10", drafts[0].Date)
}

func TestParseText_Deduplicates(t *testing.T) {
	text := "Lab report 3/20/2025\nlab report 3/20/2025\n\n\n\n\nLab report 3/27/2025"
	drafts := ParseText(text, now)
	require.Len(t, drafts, 2)
	assert.Equal(t, "2025-03-20", drafts[0].Date)
	assert.Equal(t, "2025-03-27", drafts[1].Date)
}

func TestParseText_Empty(t *testing.T) {
	assert.Empty(t, ParseText("", now))
	assert.Empty(t, ParseText("Welcome to the course!\nOffice: Room 204", now))
}

func TestFindDate(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"due 3/10/2025", "2025-03-10"},
		{"due 03-10-25", "2025-03-10"},
		{"Mar 10, 2025", "2025-03-10"},
		{"Sept. 2 2025", "2025-09-02"},
		{"10 March 2025", "2025-03-10"},
		{"2/30/2025", ""},
		{"1/5/1999", ""},
		{"Room 12 2025", ""},
		{"no date here", ""},
		{"between 4/2/2025 and 4/9/2025", "2025-04-02"},
	}
	for _, tt := range tests {
		got, ok := findDate(tt.line, now)
		if tt.want == "" {
			assert.False(t, ok, "findDate(%q) = %v", tt.line, got)
			continue
		}
		if assert.True(t, ok, "findDate(%q)", tt.line) {
			assert.Equal(t, tt.want, got.Format(time.DateOnly), tt.line)
		}
	}
}

func TestFindTime(t *testing.T) {
	tests := map[string]string{
		"due 11:59 PM":  "23:59",
		"at 9am":        "09:00",
		"12 pm lecture": "12:00",
		"12:15 a.m.":    "00:15",
		"starts 14:30":  "14:30",
		"no time":       "23:59",
		"at 25:00":      "23:59",
		"13pm is bogus": "23:59",
	}
	for line, want := range tests {
		assert.Equal(t, want, findTime(line), line)
	}
}

func TestEstimateHoursAndPriority(t *testing.T) {
	assert.Equal(t, 4.5, estimateHours("comprehensive final exam", "exam"))
	assert.Equal(t, 0.5, estimateHours("watch video", "video"))
	assert.Equal(t, 2.0, estimateHours("something", "other"))

	assert.Equal(t, "urgent", string(priorityOf("urgent: resubmit paper")))
	assert.Equal(t, "high", string(priorityOf("clinical reflection")))
	assert.Equal(t, "low", string(priorityOf("extra credit reading")))
	assert.Equal(t, "medium", string(priorityOf("reading chapter 5")))
}
