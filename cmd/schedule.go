package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/studiora/studiora/internal/logging"
	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
	"github.com/studiora/studiora/internal/ui/tables"
)

// keepRuns is how many schedule runs are retained for history.
const keepRuns = 20

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Generate and inspect the study plan",
}

var scheduleGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Rebuild the study plan from the current assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()

		now := e.now()
		end := e.cfg.ScheduleEnd(now)
		if s, _ := cmd.Flags().GetString("until"); s != "" {
			d, err := parseDay(s, e.loc())
			if err != nil {
				return err
			}
			end = d.AddDate(0, 0, 1)
		}

		in, titles, courseNames, err := loadInput(ctx, e)
		if err != nil {
			return err
		}
		in.Start, in.End = now, end
		events, err := e.store.EventRepo().List(ctx, startOfDay(now), end)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		for _, ev := range events {
			in.Events = append(in.Events, ev.Event)
		}

		engine, err := newEngine(ctx, e)
		if err != nil {
			return err
		}
		sched := engine.Generate(in)

		run, err := e.store.ScheduleRepo().Replace(ctx, sched, now)
		if err != nil {
			return fmt.Errorf("save schedule: %w", err)
		}
		if err := e.store.ScheduleRepo().PruneRuns(ctx, keepRuns); err != nil {
			e.log.Warn().Err(err).Msg("prune schedule runs")
		}

		stats := sched.Statistics()
		e.log.Info().
			Int64("run", run.Sequence).
			Int("blocks", stats.BlockCount).
			Float64("hours", stats.TotalHours).
			Float64("avg_per_day", stats.AveragePerDay).
			Int("assignments", len(in.Assignments)).
			Int("events", len(in.Events)).
			Msg("schedule generated")

		fmt.Printf("Planned %d blocks (%.1fh) from %s to %s\n\n",
			stats.BlockCount, stats.TotalHours,
			now.Format("Jan 2"), end.AddDate(0, 0, -1).Format("Jan 2, 2006"))
		fmt.Println(tables.Statistics(stats, courseNames))
		if short := shortfalls(sched.Allocations); len(short) > 0 {
			fmt.Printf("\n%d assignment(s) could not be fully scheduled:\n", len(short))
			fmt.Println(tables.Allocations(short, titles))
		}
		return nil
	},
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show planned blocks",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		from, to, err := blockRange(cmd, e)
		if err != nil {
			return err
		}
		blocks, err := e.store.ScheduleRepo().Blocks(cmd.Context(), from, to)
		if err != nil {
			return fmt.Errorf("load blocks: %w", err)
		}
		if len(blocks) == 0 {
			fmt.Println("Nothing planned. Run `studiora schedule generate` first.")
			return nil
		}
		fmt.Println(tables.Blocks(blocks))
		return nil
	},
}

var scheduleStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of the latest generated plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()

		run, err := e.store.ScheduleRepo().LatestRun(ctx)
		if err != nil {
			return fmt.Errorf("load latest run: %w", err)
		}
		if run == nil {
			fmt.Println("No schedule generated yet.")
			return nil
		}
		_, titles, courseNames, err := loadInput(ctx, e)
		if err != nil {
			return err
		}

		fmt.Printf("Generated %s for %s – %s\n\n",
			run.Timestamp.In(e.loc()).Format("2006-01-02 15:04"),
			run.Start.In(e.loc()).Format("Jan 2"),
			run.End.In(e.loc()).Format("Jan 2, 2006"))
		fmt.Println(tables.Statistics(run.Stats, courseNames))
		if all, _ := cmd.Flags().GetBool("all"); all {
			fmt.Println()
			fmt.Println(tables.Allocations(run.Allocations, titles))
		} else if short := shortfalls(run.Allocations); len(short) > 0 {
			fmt.Println()
			fmt.Println(tables.Allocations(short, titles))
		}
		return nil
	},
}

var scheduleExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export planned blocks as calendar JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		from, to, err := blockRange(cmd, e)
		if err != nil {
			return err
		}
		if all, _ := cmd.Flags().GetBool("all"); all {
			from, to = allTimeFrom.In(e.loc()), allTimeTo
		}
		blocks, err := e.store.ScheduleRepo().Blocks(cmd.Context(), from, to)
		if err != nil {
			return fmt.Errorf("load blocks: %w", err)
		}

		var w io.Writer = cmd.OutOrStdout()
		if out, _ := cmd.Flags().GetString("out"); out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(scheduler.ExportBlocks(blocks)); err != nil {
			return fmt.Errorf("encode blocks: %w", err)
		}
		e.log.Debug().Int("blocks", len(blocks)).Msg("blocks exported")
		return nil
	},
}

// loadInput reads the incomplete assignments and every course, and returns
// lookup tables of assignment titles and course names for display.
func loadInput(ctx context.Context, e *env) (scheduler.Input, map[string]string, map[string]string, error) {
	var in scheduler.Input

	list, err := e.store.AssignmentRepo().List(ctx, store.AssignmentFilter{})
	if err != nil {
		return in, nil, nil, fmt.Errorf("load assignments: %w", err)
	}
	titles := make(map[string]string, len(list))
	for _, a := range list {
		in.Assignments = append(in.Assignments, a.Assignment)
		titles[a.ID] = a.Title
	}

	courses, err := e.store.CourseRepo().List(ctx)
	if err != nil {
		return in, nil, nil, fmt.Errorf("load courses: %w", err)
	}
	names := make(map[string]string, len(courses))
	for _, c := range courses {
		in.Courses = append(in.Courses, c.Scheduler())
		names[c.ID] = c.Name
	}
	return in, titles, names, nil
}

// newEngine builds an engine from the stored preferences with the config
// file overrides applied on top.
func newEngine(ctx context.Context, e *env) (*scheduler.Engine, error) {
	prefs, err := storedPreferences(ctx, e.store.SettingsRepo())
	if err != nil {
		return nil, err
	}
	engine := scheduler.New(
		scheduler.WithLocation(e.loc()),
		scheduler.WithLogger(logging.Component(e.log, "scheduler")),
		scheduler.WithPreferences(prefs),
	)
	engine.UpdatePreferences(e.cfg.SchedulerPatch(engine.Preferences()))
	return engine, nil
}

func storedPreferences(ctx context.Context, settings store.SettingsRepo) (scheduler.Preferences, error) {
	prefs := scheduler.DefaultPreferences()
	if _, err := settings.Get(ctx, store.KeySchedulerPreferences, &prefs); err != nil {
		return prefs, fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}

func shortfalls(allocs map[string]scheduler.Allocation) map[string]scheduler.Allocation {
	out := make(map[string]scheduler.Allocation)
	for id, a := range allocs {
		if a.Shortfall() > 0 {
			out[id] = a
		}
	}
	return out
}

// blockRange reads --from and --days, defaulting to the next seven days.
func blockRange(cmd *cobra.Command, e *env) (from, to time.Time, err error) {
	from = startOfDay(e.now())
	if s, _ := cmd.Flags().GetString("from"); s != "" {
		if from, err = parseDay(s, e.loc()); err != nil {
			return
		}
	}
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		days = 7
	}
	return from, from.AddDate(0, 0, days), nil
}

func init() {
	scheduleGenerateCmd.Flags().String("until", "", "Last day to plan, YYYY-MM-DD (default: term end or 120 days)")

	for _, c := range []*cobra.Command{scheduleShowCmd, scheduleExportCmd} {
		c.Flags().String("from", "", "First day, YYYY-MM-DD (default today)")
		c.Flags().Int("days", 7, "Number of days")
	}
	scheduleExportCmd.Flags().Bool("all", false, "Export every stored block")
	scheduleExportCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
	scheduleStatsCmd.Flags().Bool("all", false, "List every assignment's allocation")

	scheduleCmd.AddCommand(scheduleGenerateCmd)
	scheduleCmd.AddCommand(scheduleShowCmd)
	scheduleCmd.AddCommand(scheduleStatsCmd)
	scheduleCmd.AddCommand(scheduleExportCmd)
}
