package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/studiora/studiora/internal/logging"
	"github.com/studiora/studiora/internal/scheduler"
)

// DefaultHorizonDays is how far ahead a schedule reaches when no term end
// is configured.
const DefaultHorizonDays = 120

// Config is the studiora configuration file.
type Config struct {
	Log       logging.Config  `json:"log"`
	Timezone  string          `json:"timezone,omitempty"`
	DB        string          `json:"db,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Notify    NotifyConfig    `json:"notify"`
	LLM       LLMConfig       `json:"llm"`
}

// SchedulerConfig overrides scheduler preferences. Unset fields keep the
// engine defaults.
type SchedulerConfig struct {
	DailyMaxHours      *float64                    `json:"daily_max_hours,omitempty"`
	WeekendMaxHours    *float64                    `json:"weekend_max_hours,omitempty"`
	BlockDuration      *float64                    `json:"block_duration,omitempty"`
	BufferBeforeExam   *int                        `json:"buffer_before_exam,omitempty"`
	ReviewPercentage   *float64                    `json:"review_percentage,omitempty"`
	BreakBetweenBlocks *float64                    `json:"break_between_blocks,omitempty"`
	Windows            map[string]scheduler.Window `json:"windows,omitempty"`

	// Energy maps lower-case weekday names to multipliers.
	Energy map[string]float64 `json:"energy,omitempty"`

	// TermEnd is the last day schedules extend to, as YYYY-MM-DD.
	TermEnd     string `json:"term_end,omitempty"`
	HorizonDays int    `json:"horizon_days,omitempty"`
}

// NotifyConfig controls the reminder daemon.
type NotifyConfig struct {
	Enabled             bool           `json:"enabled"`
	StudyReminders      bool           `json:"study_reminders"`
	AssignmentReminders bool           `json:"assignment_reminders"`
	DailySummary        bool           `json:"daily_summary"`
	DailySummaryTime    string         `json:"daily_summary_time"`
	ReminderMinutes     int            `json:"reminder_minutes"`
	PerMinute           int            `json:"per_minute"`
	Telegram            TelegramConfig `json:"telegram"`
}

// TelegramConfig enables delivery through a Telegram bot.
type TelegramConfig struct {
	Token  string `json:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
}

// LLMConfig selects the syllabus-parsing provider. API keys stay in the
// environment.
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Log: logging.Config{Level: "warn", Console: true},
		Notify: NotifyConfig{
			Enabled:             true,
			StudyReminders:      true,
			AssignmentReminders: true,
			DailySummary:        true,
			DailySummaryTime:    "08:00",
			ReminderMinutes:     15,
			PerMinute:           20,
		},
	}
}

// DefaultPath resolves the config file path in priority order:
// 1. STUDIORA_CONFIG environment variable
// 2. $XDG_CONFIG_HOME/studiora/config.yaml
// 3. ~/.config/studiora/config.yaml
func DefaultPath() (string, error) {
	if p := os.Getenv("STUDIORA_CONFIG"); p != "" {
		return p, nil
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "studiora", "config.yaml"), nil
}

// Load reads the file at path. A missing file yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads and strictly decodes the file at path over the defaults.
// Unknown keys are rejected.
func Parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, err := coerceToJSON(path, b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(jb)) == 0 || string(bytes.TrimSpace(jb)) == "null" {
		return cfg, nil
	}

	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse %s: trailing data", path)
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STUDIORA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("STUDIORA_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("STUDIORA_TELEGRAM_TOKEN"); v != "" {
		c.Notify.Telegram.Token = v
	}
	if v := os.Getenv("STUDIORA_TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Notify.Telegram.ChatID = id
		}
	}
}

// Validate checks the fields that are parsed later on.
func (c *Config) Validate() error {
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	if c.Scheduler.TermEnd != "" {
		if _, err := time.Parse(time.DateOnly, c.Scheduler.TermEnd); err != nil {
			return fmt.Errorf("scheduler.term_end: want YYYY-MM-DD, got %q", c.Scheduler.TermEnd)
		}
	}
	if c.Scheduler.HorizonDays < 0 {
		return fmt.Errorf("scheduler.horizon_days must be >= 0")
	}
	for name := range c.Scheduler.Energy {
		if _, ok := ParseWeekday(name); !ok {
			return fmt.Errorf("scheduler.energy: unknown weekday %q", name)
		}
	}
	for name, w := range c.Scheduler.Windows {
		if w.Start < 0 || w.End > 24 || w.Start >= w.End {
			return fmt.Errorf("scheduler.windows.%s: invalid range %d-%d", name, w.Start, w.End)
		}
	}
	if _, err := time.Parse("15:04", c.Notify.DailySummaryTime); err != nil {
		return fmt.Errorf("notify.daily_summary_time: want HH:MM, got %q", c.Notify.DailySummaryTime)
	}
	if c.Notify.ReminderMinutes < 0 {
		return fmt.Errorf("notify.reminder_minutes must be >= 0")
	}
	return nil
}

// Location returns the configured time zone, or time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ScheduleEnd returns the exclusive end of the scheduling window starting
// at now: the day after term_end when set, otherwise now plus the horizon.
func (c *Config) ScheduleEnd(now time.Time) time.Time {
	loc := now.Location()
	if c.Scheduler.TermEnd != "" {
		if d, err := time.ParseInLocation(time.DateOnly, c.Scheduler.TermEnd, loc); err == nil {
			return d.AddDate(0, 0, 1)
		}
	}
	days := c.Scheduler.HorizonDays
	if days == 0 {
		days = DefaultHorizonDays
	}
	return now.AddDate(0, 0, days)
}

// SchedulerPatch converts the scheduler overrides into a preferences patch
// for base. Windows and energy entries are merged key by key into the maps
// of base, so periods and weekdays left out of the file keep their values.
func (c *Config) SchedulerPatch(base scheduler.Preferences) scheduler.PreferencesPatch {
	s := c.Scheduler
	patch := scheduler.PreferencesPatch{
		DailyMaxHours:      s.DailyMaxHours,
		WeekendMaxHours:    s.WeekendMaxHours,
		BlockDuration:      s.BlockDuration,
		BufferBeforeExam:   s.BufferBeforeExam,
		ReviewPercentage:   s.ReviewPercentage,
		BreakBetweenBlocks: s.BreakBetweenBlocks,
	}
	if len(s.Windows) > 0 {
		patch.Windows = maps.Clone(base.Windows)
		if patch.Windows == nil {
			patch.Windows = make(map[scheduler.Period]scheduler.Window, len(s.Windows))
		}
		for name, w := range s.Windows {
			patch.Windows[scheduler.Period(strings.ToLower(name))] = w
		}
	}
	if len(s.Energy) > 0 {
		patch.Energy = maps.Clone(base.Energy)
		if patch.Energy == nil {
			patch.Energy = make(map[time.Weekday]float64, len(s.Energy))
		}
		for name, v := range s.Energy {
			if wd, ok := ParseWeekday(name); ok {
				patch.Energy[wd] = v
			}
		}
	}
	return patch
}

// DailySummaryClock returns the configured summary time as hour and minute.
func (n NotifyConfig) DailySummaryClock() (hour, minute int) {
	t, err := time.Parse("15:04", n.DailySummaryTime)
	if err != nil {
		return 8, 0
	}
	return t.Hour(), t.Minute()
}

// ParseWeekday accepts full or three-letter weekday names in any case.
func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, true
		}
	}
	return 0, false
}
