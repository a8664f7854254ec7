package cmd

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/studiora/studiora/internal/config"
	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change scheduling preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		engine, err := newEngine(cmd.Context(), e)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(engine.Preferences(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key=value>...",
	Short: "Change stored preferences",
	Long: `Change stored preferences. Keys:

  dailyMaxHours, weekendMaxHours, blockDuration, bufferBeforeExam,
  reviewPercentage, breakBetweenBlocks
  energy.<weekday>=<multiplier>        e.g. energy.friday=0.6
  window.<period>=<start>-<end>[:w]    e.g. window.evening=19-23:1.5

Values in the config file still take precedence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()

		settings := e.store.SettingsRepo()
		prefs, err := storedPreferences(ctx, settings)
		if err != nil {
			return err
		}
		for _, arg := range args {
			if prefs, err = setPreference(prefs, arg); err != nil {
				return err
			}
		}
		if err := settings.Put(ctx, store.KeySchedulerPreferences, prefs); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
		e.log.Info().Strs("changes", args).Msg("preferences updated")
		fmt.Println("Preferences saved. Run `studiora schedule generate` to apply them.")
		return nil
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget stored preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.SettingsRepo().Delete(cmd.Context(), store.KeySchedulerPreferences); err != nil {
			return fmt.Errorf("reset preferences: %w", err)
		}
		fmt.Println("Preferences reset to defaults.")
		return nil
	},
}

// setPreference applies one key=value assignment to prefs.
func setPreference(prefs scheduler.Preferences, arg string) (scheduler.Preferences, error) {
	key, val, ok := strings.Cut(arg, "=")
	if !ok {
		return prefs, fmt.Errorf("%q: want key=value", arg)
	}
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)

	var patch scheduler.PreferencesPatch
	num := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("%s: %q is not a non-negative number", key, val)
		}
		return f, nil
	}

	switch {
	case key == "dailyMaxHours", key == "weekendMaxHours", key == "blockDuration",
		key == "reviewPercentage", key == "breakBetweenBlocks":
		f, err := num()
		if err != nil {
			return prefs, err
		}
		switch key {
		case "dailyMaxHours":
			patch.DailyMaxHours = &f
		case "weekendMaxHours":
			patch.WeekendMaxHours = &f
		case "blockDuration":
			if f == 0 {
				return prefs, fmt.Errorf("blockDuration must be positive")
			}
			patch.BlockDuration = &f
		case "reviewPercentage":
			if f > 1 {
				return prefs, fmt.Errorf("reviewPercentage is a fraction between 0 and 1")
			}
			patch.ReviewPercentage = &f
		case "breakBetweenBlocks":
			patch.BreakBetweenBlocks = &f
		}

	case key == "bufferBeforeExam":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return prefs, fmt.Errorf("bufferBeforeExam: %q is not a whole number of days", val)
		}
		patch.BufferBeforeExam = &n

	case strings.HasPrefix(key, "energy."):
		day, ok := config.ParseWeekday(strings.TrimPrefix(key, "energy."))
		if !ok {
			return prefs, fmt.Errorf("%s: unknown weekday", key)
		}
		f, err := num()
		if err != nil {
			return prefs, err
		}
		patch.Energy = maps.Clone(prefs.Energy)
		if patch.Energy == nil {
			patch.Energy = make(map[time.Weekday]float64)
		}
		patch.Energy[day] = f

	case strings.HasPrefix(key, "window."):
		period := scheduler.Period(strings.ToLower(strings.TrimPrefix(key, "window.")))
		w, err := parseWindow(val)
		if err != nil {
			return prefs, fmt.Errorf("%s: %w", key, err)
		}
		patch.Windows = maps.Clone(prefs.Windows)
		if patch.Windows == nil {
			patch.Windows = make(map[scheduler.Period]scheduler.Window)
		}
		patch.Windows[period] = w

	default:
		return prefs, fmt.Errorf("unknown preference %q", key)
	}
	return prefs.Apply(patch), nil
}

// parseWindow reads "start-end" or "start-end:weight" in whole hours.
func parseWindow(s string) (scheduler.Window, error) {
	w := scheduler.Window{Weight: 1}
	rng, weight, hasWeight := strings.Cut(s, ":")
	a, b, ok := strings.Cut(rng, "-")
	if !ok {
		return w, fmt.Errorf("%q: want start-end", s)
	}
	var err error
	if w.Start, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return w, fmt.Errorf("%q: bad start hour", s)
	}
	if w.End, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
		return w, fmt.Errorf("%q: bad end hour", s)
	}
	if w.Start < 0 || w.End > 24 || w.Start >= w.End {
		return w, fmt.Errorf("%q: invalid range", s)
	}
	if hasWeight {
		if w.Weight, err = strconv.ParseFloat(weight, 64); err != nil || w.Weight <= 0 {
			return w, fmt.Errorf("%q: bad weight", s)
		}
	}
	return w, nil
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsResetCmd)
}
