package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/studiora/studiora/internal/config"
	"github.com/studiora/studiora/internal/logging"
	"github.com/studiora/studiora/internal/notify"
	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
	"github.com/studiora/studiora/internal/ui/tables"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Study and deadline reminders",
}

var notifyPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the reminders due in the coming hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()

		window, _ := cmd.Flags().GetDuration("window")
		now := e.now()
		to := now.Add(window)

		blocks, err := e.store.ScheduleRepo().Blocks(ctx, startOfDay(now), to)
		if err != nil {
			return fmt.Errorf("load blocks: %w", err)
		}
		list, err := e.store.AssignmentRepo().List(ctx, store.AssignmentFilter{})
		if err != nil {
			return fmt.Errorf("load assignments: %w", err)
		}
		assignments := make([]scheduler.Assignment, len(list))
		for i, a := range list {
			assignments[i] = a.Assignment
		}

		settings := notify.SettingsFrom(e.cfg.Notify)
		var upcoming []notify.Reminder
		for _, r := range notify.Plan(blocks, assignments, settings, now) {
			if r.At.After(to) {
				break
			}
			upcoming = append(upcoming, r)
		}
		if len(upcoming) == 0 {
			fmt.Printf("No reminders in the next %s.\n", window)
			return nil
		}
		fmt.Println(tables.Reminders(upcoming))
		return nil
	},
}

var notifyRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reminder daemon in the foreground",
	Long: `Run the reminder daemon. Reminders are written to the log and, when a
Telegram token and chat id are configured, sent through the bot. The config
file is watched and notification settings are applied without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := logging.Component(e.log, "notify")
		senders := notify.Senders{notify.LogSender{Log: log}}
		if tg := e.cfg.Notify.Telegram; tg.Token != "" {
			sender, err := notify.NewTelegramSender(tg)
			if err != nil {
				return fmt.Errorf("telegram: %w", err)
			}
			senders = append(senders, sender)
			log.Info().Int64("chat", tg.ChatID).Msg("telegram delivery enabled")
		}

		opts := []notify.Option{
			notify.WithLocation(e.loc()),
			notify.WithLogger(log),
		}
		if sd, _ := cmd.Flags().GetBool("systemd"); sd {
			opts = append(opts, notify.WithSystemd())
		}
		d := notify.NewDaemon(notify.Repos{
			Schedule:    e.store.ScheduleRepo(),
			Assignments: e.store.AssignmentRepo(),
			Sent:        e.store.ReminderLog(),
		}, senders, notify.SettingsFrom(e.cfg.Notify), opts...)

		var updates <-chan *config.Config
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			w := config.NewWatcher(e.configPath, e.cfg, logging.Component(e.log, "config"))
			updates = w.Subscribe(1)
			go func() {
				if err := w.Watch(ctx); err != nil {
					log.Warn().Err(err).Msg("config watch stopped")
				}
			}()
		}

		// Catch up immediately instead of waiting for the first cron tick.
		if err := d.Tick(ctx); err != nil {
			log.Warn().Err(err).Msg("initial reminder tick failed")
		}
		return d.Run(ctx, updates)
	},
}

func init() {
	notifyPlanCmd.Flags().Duration("window", 48*time.Hour, "How far ahead to look")
	notifyRunCmd.Flags().Bool("systemd", false, "Report readiness to systemd (Type=notify units)")
	notifyRunCmd.Flags().Bool("watch", true, "Reload notification settings when the config file changes")

	notifyCmd.AddCommand(notifyPlanCmd)
	notifyCmd.AddCommand(notifyRunCmd)
}
