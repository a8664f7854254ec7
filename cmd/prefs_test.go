package cmd

import (
	"testing"
	"time"

	"github.com/studiora/studiora/internal/scheduler"
)

func TestSetPreference(t *testing.T) {
	base := scheduler.DefaultPreferences()

	p, err := setPreference(base, "dailyMaxHours=5")
	if err != nil {
		t.Fatal(err)
	}
	if p.DailyMaxHours != 5 {
		t.Errorf("DailyMaxHours = %v, want 5", p.DailyMaxHours)
	}

	p, err = setPreference(p, "energy.fri=0.5")
	if err != nil {
		t.Fatal(err)
	}
	if p.Energy[time.Friday] != 0.5 {
		t.Errorf("Friday energy = %v, want 0.5", p.Energy[time.Friday])
	}
	if p.Energy[time.Monday] != base.Energy[time.Monday] {
		t.Error("other weekdays should keep their values")
	}
	if base.Energy[time.Friday] == 0.5 {
		t.Error("base preferences were mutated")
	}

	p, err = setPreference(p, "window.evening=19-23:1.5")
	if err != nil {
		t.Fatal(err)
	}
	want := scheduler.Window{Start: 19, End: 23, Weight: 1.5}
	if p.Windows[scheduler.Evening] != want {
		t.Errorf("evening = %+v, want %+v", p.Windows[scheduler.Evening], want)
	}
	if p.Windows[scheduler.Morning] != base.Windows[scheduler.Morning] {
		t.Error("other windows should be kept")
	}

	p, err = setPreference(p, "bufferBeforeExam=3")
	if err != nil {
		t.Fatal(err)
	}
	if p.BufferBeforeExam != 3 {
		t.Errorf("BufferBeforeExam = %d", p.BufferBeforeExam)
	}
}

func TestSetPreferenceErrors(t *testing.T) {
	base := scheduler.DefaultPreferences()
	for _, arg := range []string{
		"dailyMaxHours",
		"dailyMaxHours=-1",
		"blockDuration=0",
		"reviewPercentage=1.5",
		"bufferBeforeExam=1.5",
		"energy.someday=1",
		"window.evening=22-19",
		"window.evening=19",
		"window.evening=19-23:0",
		"colour=blue",
	} {
		if _, err := setPreference(base, arg); err == nil {
			t.Errorf("%s: expected error", arg)
		}
	}
}
