package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiora/studiora/internal/scheduler"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "08:00", cfg.Notify.DailySummaryTime)
	assert.Equal(t, 15, cfg.Notify.ReminderMinutes)
	assert.True(t, cfg.Notify.StudyReminders)
	assert.Equal(t, scheduler.PreferencesPatch{}, cfg.SchedulerPatch(scheduler.DefaultPreferences()))
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
log:
  level: debug
scheduler:
  daily_max_hours: 4
  buffer_before_exam: 3
  windows:
    morning: {start: 7, end: 11, weight: 2}
  energy:
    friday: 0.5
    sat: 1
  term_end: 2025-05-09
notify:
  reminder_minutes: 30
  daily_summary: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30, cfg.Notify.ReminderMinutes)
	assert.False(t, cfg.Notify.DailySummary)
	assert.True(t, cfg.Notify.AssignmentReminders, "unset keys keep defaults")

	patch := cfg.SchedulerPatch(scheduler.DefaultPreferences())
	require.NotNil(t, patch.DailyMaxHours)
	assert.Equal(t, 4.0, *patch.DailyMaxHours)
	require.NotNil(t, patch.BufferBeforeExam)
	assert.Equal(t, 3, *patch.BufferBeforeExam)
	assert.Nil(t, patch.WeekendMaxHours)
	assert.Equal(t, scheduler.Window{Start: 7, End: 11, Weight: 2}, patch.Windows[scheduler.Morning])
	assert.Equal(t, 0.5, patch.Energy[time.Friday])
	assert.Equal(t, 1.0, patch.Energy[time.Saturday])
	assert.Equal(t, 0.9, patch.Energy[time.Monday], "unlisted weekdays keep defaults")

	prefs := scheduler.DefaultPreferences().Apply(patch)
	assert.Equal(t, 4.0, prefs.DailyMaxHours)
	assert.Len(t, prefs.Windows, 3, "unlisted periods keep their windows")
	assert.Equal(t, scheduler.Window{Start: 7, End: 11, Weight: 2}, prefs.Windows[scheduler.Morning])
}

func TestSchedulerPatch_MergesOntoStoredPreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
scheduler:
  windows:
    evening: {start: 19, end: 23, weight: 1}
  energy:
    monday: 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	stored := scheduler.DefaultPreferences()
	stored.Energy[time.Friday] = 0.3
	stored.Windows[scheduler.Morning] = scheduler.Window{Start: 6, End: 10, Weight: 1.5}

	prefs := stored.Apply(cfg.SchedulerPatch(stored))
	assert.Equal(t, 1.0, prefs.Energy[time.Monday])
	assert.Equal(t, 0.3, prefs.Energy[time.Friday], "stored weekday survives a partial override")
	assert.Equal(t, scheduler.Window{Start: 19, End: 23, Weight: 1}, prefs.Windows[scheduler.Evening])
	assert.Equal(t, scheduler.Window{Start: 6, End: 10, Weight: 1.5}, prefs.Windows[scheduler.Morning])
	assert.Contains(t, prefs.Windows, scheduler.Afternoon)

	assert.Equal(t, 0.9, stored.Energy[time.Monday], "base is not modified")
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "schedular:\n  daily_max_hours: 4\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad term end", "scheduler:\n  term_end: May 9\n"},
		{"bad weekday", "scheduler:\n  energy:\n    funday: 1\n"},
		{"inverted window", "scheduler:\n  windows:\n    evening: {start: 22, end: 18}\n"},
		{"bad summary time", "notify:\n  daily_summary_time: 8am\n"},
		{"bad timezone", "timezone: Mars/Olympus\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.body)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STUDIORA_LOG_LEVEL", "error")
	t.Setenv("STUDIORA_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("STUDIORA_TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "123:abc", cfg.Notify.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Notify.Telegram.ChatID)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Notify, cfg.Notify)
}

func TestScheduleEnd(t *testing.T) {
	now := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

	cfg := Default()
	assert.Equal(t, now.AddDate(0, 0, DefaultHorizonDays), cfg.ScheduleEnd(now))

	cfg.Scheduler.HorizonDays = 14
	assert.Equal(t, now.AddDate(0, 0, 14), cfg.ScheduleEnd(now))

	cfg.Scheduler.TermEnd = "2025-05-09"
	assert.Equal(t, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), cfg.ScheduleEnd(now))
}

func TestDailySummaryClock(t *testing.T) {
	h, m := NotifyConfig{DailySummaryTime: "07:45"}.DailySummaryClock()
	assert.Equal(t, 7, h)
	assert.Equal(t, 45, m)

	h, m = NotifyConfig{}.DailySummaryClock()
	assert.Equal(t, 8, h)
	assert.Equal(t, 0, m)
}

func TestMarshal_RoundTripsThroughParse(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.TermEnd = "2025-05-09"

	data, err := Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-09", got.Scheduler.TermEnd)
}

func TestWatcher_PublishesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "notify:\n  reminder_minutes: 10\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	w := NewWatcher(path, cfg, zerolog.Nop())
	updates := w.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "notify:\n  reminder_minutes: 45\n")

	select {
	case got := <-updates:
		assert.Equal(t, 45, got.Notify.ReminderMinutes)
		assert.Equal(t, 45, w.Get().Notify.ReminderMinutes)
	case <-time.After(5 * time.Second):
		t.Fatal("no config update published")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_ReloadIgnoresInvalidAndUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "notify:\n  reminder_minutes: 10\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	w := NewWatcher(path, cfg, zerolog.Nop())
	updates := w.Subscribe(1)

	w.Reload()
	select {
	case <-updates:
		t.Fatal("unchanged config was published")
	default:
	}

	writeFile(t, path, "notify: [broken\n")
	w.Reload()
	assert.Equal(t, 10, w.Get().Notify.ReminderMinutes)
}
