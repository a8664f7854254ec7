package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
	"github.com/studiora/studiora/internal/ui/tables"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage calendar commitments that study time must avoid",
}

var eventAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a calendar event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		f := cmd.Flags()

		startStr, _ := f.GetString("start")
		start, err := parseDateTime(startStr, e.loc())
		if err != nil {
			return err
		}
		ev := &store.Event{Event: scheduler.Event{Title: args[0], Start: start}}
		if endStr, _ := f.GetString("end"); endStr != "" {
			if ev.End, err = parseDateTime(endStr, e.loc()); err != nil {
				return err
			}
		} else if d, _ := f.GetDuration("duration"); d > 0 {
			ev.End = start.Add(d)
		}
		ev.Location, _ = f.GetString("location")

		if err := e.store.EventRepo().Add(cmd.Context(), ev); err != nil {
			return err
		}
		fmt.Printf("Added event %q at %s (%s)\n", ev.Title, ev.Start.Format("Mon Jan 2 15:04"), ev.ID[:min(8, len(ev.ID))])
		return nil
	},
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List upcoming events",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		days, _ := cmd.Flags().GetInt("days")
		from := startOfDay(e.now())
		events, err := e.store.EventRepo().List(cmd.Context(), from, from.AddDate(0, 0, days))
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		if len(events) == 0 {
			fmt.Printf("No events in the next %d days.\n", days)
			return nil
		}
		fmt.Println(tables.Events(events))
		return nil
	},
}

var eventRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		events, err := e.store.EventRepo().List(cmd.Context(), allTimeFrom.In(e.loc()), allTimeTo)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		ids := make([]string, len(events))
		for i, ev := range events {
			ids[i] = ev.ID
		}
		id, err := resolveID("event", args[0], ids)
		if err != nil {
			return err
		}
		if err := e.store.EventRepo().Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("remove event: %w", err)
		}
		fmt.Printf("Removed event %s\n", id[:min(8, len(id))])
		return nil
	},
}

// Bounds used when every stored event must be considered.
var (
	allTimeFrom = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	allTimeTo   = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
)

func init() {
	f := eventAddCmd.Flags()
	f.StringP("start", "s", "", "Start as YYYY-MM-DD HH:MM (required)")
	f.StringP("end", "e", "", "End as YYYY-MM-DD HH:MM")
	f.Duration("duration", 0, "Length, used when --end is not given (default 1h)")
	f.StringP("location", "l", "", "Where the event takes place")
	_ = eventAddCmd.MarkFlagRequired("start")

	eventListCmd.Flags().Int("days", 14, "How many days ahead to list")

	eventCmd.AddCommand(eventAddCmd)
	eventCmd.AddCommand(eventListCmd)
	eventCmd.AddCommand(eventRmCmd)
}
