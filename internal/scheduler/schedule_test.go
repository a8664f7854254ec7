package scheduler

import (
	"encoding/json"
	"testing"
)

func sampleSchedule() *Schedule {
	mon := day(0)
	tue := day(1)
	return &Schedule{
		Blocks: []Block{
			{ID: "1", AssignmentID: "a", CourseID: "c1", Title: "Study: A", Kind: KindStudy,
				Date: mon, Start: at(mon, 8, 0), End: at(mon, 9, 30), Hours: 1.5,
				Priority: PriorityHigh, Energy: EnergyHigh, AssignmentTitle: "A", AssignmentType: TypeExam},
			{ID: "2", AssignmentID: "b", CourseID: "c2", Title: "Study: B", Kind: KindStudy,
				Date: mon, Start: at(mon, 18, 0), End: at(mon, 19, 0), Hours: 1,
				Priority: PriorityLow, Energy: EnergyMedium, AssignmentTitle: "B", AssignmentType: TypeReading},
			{ID: "3", AssignmentID: "a", CourseID: "c1", Title: "Review: A", Kind: KindReview,
				Date: tue, Start: at(tue, 9, 30), End: at(tue, 11, 30), Hours: 2,
				Priority: PriorityHigh, Energy: EnergyHigh, AssignmentTitle: "A", AssignmentType: TypeExam},
		},
		Start: mon,
		End:   day(7),
	}
}

func TestStatistics(t *testing.T) {
	stats := sampleSchedule().Statistics()

	if stats.TotalHours != 4.5 {
		t.Errorf("TotalHours = %v, want 4.5", stats.TotalHours)
	}
	if stats.AveragePerDay != 4.5/7 {
		t.Errorf("AveragePerDay = %v, want %v", stats.AveragePerDay, 4.5/7)
	}
	if stats.BlockCount != 3 {
		t.Errorf("BlockCount = %d, want 3", stats.BlockCount)
	}
	if stats.ByType[KindStudy] != 2.5 || stats.ByType[KindReview] != 2 {
		t.Errorf("ByType = %v", stats.ByType)
	}
	if stats.ByCourse["c1"] != 3.5 || stats.ByCourse["c2"] != 1 {
		t.Errorf("ByCourse = %v", stats.ByCourse)
	}
	if stats.ByDay["Monday"] != 2.5 || stats.ByDay["Tuesday"] != 2 {
		t.Errorf("ByDay = %v", stats.ByDay)
	}
}

func TestStatistics_NilSchedule(t *testing.T) {
	var s *Schedule
	stats := s.Statistics()
	if stats.BlockCount != 0 || stats.TotalHours != 0 {
		t.Errorf("stats = %+v, want zero", stats)
	}
	if stats.ByType == nil {
		t.Error("ByType should be an empty map, not nil")
	}
}

func TestBlocksOn(t *testing.T) {
	s := sampleSchedule()
	if got := len(s.BlocksOn(day(0))); got != 2 {
		t.Errorf("BlocksOn(Monday) = %d blocks, want 2", got)
	}
	if got := len(s.BlocksOn(at(day(1), 15, 0))); got != 1 {
		t.Errorf("BlocksOn(Tuesday) = %d blocks, want 1", got)
	}
	if got := len(s.BlocksOn(day(2))); got != 0 {
		t.Errorf("BlocksOn(Wednesday) = %d blocks, want 0", got)
	}
}

func TestExportForCalendar(t *testing.T) {
	s := sampleSchedule()
	records := s.ExportForCalendar()

	if len(records) != len(s.Blocks) {
		t.Fatalf("records = %d, want %d", len(records), len(s.Blocks))
	}

	study := records[0]
	if study.BackgroundColor != StudyColor {
		t.Errorf("study color = %s, want %s", study.BackgroundColor, StudyColor)
	}
	if study.TextColor != TextColor {
		t.Errorf("text color = %s, want %s", study.TextColor, TextColor)
	}
	if study.ExtendedProps.EnergyRequired != EnergyHigh {
		t.Errorf("energy = %s, want high", study.ExtendedProps.EnergyRequired)
	}
	if study.ExtendedProps.AssignmentTitle != "A" {
		t.Errorf("assignment title = %q, want A", study.ExtendedProps.AssignmentTitle)
	}

	review := records[2]
	if review.BackgroundColor != ReviewColor {
		t.Errorf("review color = %s, want %s", review.BackgroundColor, ReviewColor)
	}
	if review.ExtendedProps.Type != KindReview {
		t.Errorf("type = %s, want review", review.ExtendedProps.Type)
	}
}

func TestExportForCalendar_JSONShape(t *testing.T) {
	records := sampleSchedule().ExportForCalendar()
	data, err := json.Marshal(records[0])
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "title", "start", "end", "backgroundColor", "textColor", "extendedProps"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	props := raw["extendedProps"].(map[string]any)
	if props["assignmentId"] != "a" {
		t.Errorf("assignmentId = %v, want a", props["assignmentId"])
	}
}
