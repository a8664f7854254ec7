package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/studiora/studiora/internal/config"
	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
)

const (
	// lookahead bounds the blocks loaded per tick.
	lookahead = 48 * time.Hour

	// catchUp is how far back the first tick looks for missed reminders.
	catchUp = 2 * time.Minute

	// retryWindow bounds how long a reminder whose send failed is retried.
	retryWindow = 30 * time.Minute

	sentRetention = 30 * 24 * time.Hour
)

// errUndelivered marks a reminder the sender failed to deliver.
var errUndelivered = errors.New("reminder not delivered")

// Daemon dispatches due reminders once a minute and the daily summary at
// its configured time.
type Daemon struct {
	schedule    store.ScheduleRepo
	assignments store.AssignmentRepo
	sent        store.ReminderLog
	sender      Sender
	log         zerolog.Logger
	clock       func() time.Time
	loc         *time.Location
	notifyReady bool

	mu        sync.Mutex
	settings  Settings
	limiter   *rate.Limiter
	lastTick  time.Time
	cron      *cron.Cron
	summaryID cron.EntryID
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(d *Daemon) { d.clock = clock }
}

// WithLocation sets the zone reminders and the summary entry run in.
func WithLocation(loc *time.Location) Option {
	return func(d *Daemon) {
		if loc != nil {
			d.loc = loc
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(d *Daemon) { d.log = log }
}

// WithSystemd sends readiness and stopping notifications to systemd.
func WithSystemd() Option {
	return func(d *Daemon) { d.notifyReady = true }
}

// Repos are the repositories the daemon reads blocks and assignments from
// and records deliveries in.
type Repos struct {
	Schedule    store.ScheduleRepo
	Assignments store.AssignmentRepo
	Sent        store.ReminderLog
}

// NewDaemon creates a Daemon. Nothing runs until Run.
func NewDaemon(repos Repos, sender Sender, s Settings, opts ...Option) *Daemon {
	d := &Daemon{
		schedule:    repos.Schedule,
		assignments: repos.Assignments,
		sent:        repos.Sent,
		sender:      sender,
		log:         zerolog.Nop(),
		clock:       time.Now,
		loc:         time.Local,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.apply(s)
	return d
}

// Settings returns the active settings.
func (d *Daemon) Settings() Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settings
}

// Apply replaces the settings of a running or stopped daemon.
func (d *Daemon) Apply(s Settings) {
	d.apply(s)
	d.log.Info().
		Bool("enabled", s.Enabled).
		Int("reminder_minutes", s.ReminderMinutes).
		Msg("notify settings applied")
}

func (d *Daemon) apply(s Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()

	per := s.PerMinute
	if per <= 0 {
		per = 20
	}
	d.settings = s
	d.limiter = rate.NewLimiter(rate.Limit(float64(per)/60), per)
	if d.cron != nil {
		d.registerSummaryLocked()
	}
}

func (d *Daemon) registerSummaryLocked() {
	if d.summaryID != 0 {
		d.cron.Remove(d.summaryID)
		d.summaryID = 0
	}
	if !d.settings.Enabled || !d.settings.DailySummary {
		return
	}
	spec := fmt.Sprintf("%d %d * * *", d.settings.SummaryMinute, d.settings.SummaryHour)
	id, err := d.cron.AddFunc(spec, func() {
		if err := d.SendSummary(context.Background()); err != nil {
			d.log.Warn().Err(err).Msg("daily summary failed")
		}
	})
	if err != nil {
		d.log.Error().Err(err).Str("spec", spec).Msg("register daily summary")
		return
	}
	d.summaryID = id
}

// Run starts the cron jobs and blocks until ctx is done. Config updates
// received on updates are applied live; a nil channel disables reloading.
func (d *Daemon) Run(ctx context.Context, updates <-chan *config.Config) error {
	c := cron.New(cron.WithLocation(d.loc))
	if _, err := c.AddFunc("@every 1m", func() {
		if err := d.Tick(ctx); err != nil {
			d.log.Warn().Err(err).Msg("reminder tick failed")
		}
	}); err != nil {
		return fmt.Errorf("register tick: %w", err)
	}
	if _, err := c.AddFunc("@daily", func() {
		if err := d.sent.Prune(ctx, d.clock().Add(-sentRetention)); err != nil {
			d.log.Warn().Err(err).Msg("prune sent reminders")
		}
	}); err != nil {
		return fmt.Errorf("register prune: %w", err)
	}

	d.mu.Lock()
	d.cron = c
	d.registerSummaryLocked()
	d.mu.Unlock()

	c.Start()
	d.log.Info().Str("tz", d.loc.String()).Msg("reminder daemon started")
	d.sdNotify(daemon.SdNotifyReady)

	for {
		select {
		case <-ctx.Done():
			d.sdNotify(daemon.SdNotifyStopping)
			<-c.Stop().Done()
			d.mu.Lock()
			d.cron = nil
			d.summaryID = 0
			d.mu.Unlock()
			d.log.Info().Msg("reminder daemon stopped")
			return nil
		case cfg, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			d.Apply(SettingsFrom(cfg.Notify))
		}
	}
}

func (d *Daemon) sdNotify(state string) {
	if !d.notifyReady {
		return
	}
	if _, err := daemon.SdNotify(false, state); err != nil {
		d.log.Debug().Err(err).Str("state", state).Msg("sd_notify")
	}
}

// Tick sends every study and deadline reminder that came due since the
// previous tick. Reminders already recorded as sent are skipped. A reminder
// whose send fails is planned again on later ticks for up to retryWindow.
func (d *Daemon) Tick(ctx context.Context) error {
	now := d.clock().In(d.loc)

	d.mu.Lock()
	s := d.settings
	since := d.lastTick
	d.mu.Unlock()
	if since.IsZero() {
		since = now.Add(-catchUp)
	}
	if !s.Enabled {
		d.setLastTick(now)
		return nil
	}
	s.DailySummary = false

	blocks, assignments, err := d.load(ctx, since, now.Add(lookahead))
	if err != nil {
		return err
	}

	var (
		sent   int
		failed time.Time
	)
	for _, r := range Plan(blocks, assignments, s, since) {
		if r.At.After(now) {
			break
		}
		ok, err := d.deliver(ctx, r)
		switch {
		case errors.Is(err, errUndelivered):
			if failed.IsZero() {
				failed = r.At
			}
			continue
		case err != nil:
			return err
		}
		if ok {
			sent++
		}
	}
	d.setLastTick(resumeFrom(now, failed))
	if sent > 0 {
		d.log.Debug().Int("sent", sent).Msg("reminders dispatched")
	}
	return nil
}

// resumeFrom is the instant the next tick plans from: just before the
// earliest failed reminder, but no earlier than retryWindow ago.
func resumeFrom(now, failed time.Time) time.Time {
	if failed.IsZero() {
		return now
	}
	next := failed.Add(-time.Nanosecond)
	if floor := now.Add(-retryWindow); next.Before(floor) {
		return floor
	}
	return next
}

func (d *Daemon) setLastTick(t time.Time) {
	d.mu.Lock()
	d.lastTick = t
	d.mu.Unlock()
}

// SendSummary sends today's overview.
func (d *Daemon) SendSummary(ctx context.Context) error {
	now := d.clock().In(d.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.loc)
	blocks, assignments, err := d.load(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	_, err = d.deliver(ctx, Summary(now, blocks, assignments))
	return err
}

func (d *Daemon) load(ctx context.Context, from, to time.Time) ([]scheduler.Block, []scheduler.Assignment, error) {
	blocks, err := d.schedule.Blocks(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("load blocks: %w", err)
	}
	stored, err := d.assignments.List(ctx, store.AssignmentFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("load assignments: %w", err)
	}
	assignments := make([]scheduler.Assignment, len(stored))
	for i, a := range stored {
		assignments[i] = a.Assignment
	}
	return blocks, assignments, nil
}

// deliver sends r unless it was sent before and reports whether it sent.
// A sender failure is returned wrapping errUndelivered.
func (d *Daemon) deliver(ctx context.Context, r Reminder) (bool, error) {
	done, err := d.sent.WasSent(ctx, r.Key)
	if err != nil {
		return false, fmt.Errorf("check reminder %s: %w", r.Key, err)
	}
	if done {
		return false, nil
	}

	d.mu.Lock()
	limiter := d.limiter
	d.mu.Unlock()
	if err := limiter.Wait(ctx); err != nil {
		return false, err
	}

	if err := d.sender.Send(ctx, r); err != nil {
		d.log.Warn().Err(err).Str("key", r.Key).Msg("send reminder")
		return false, fmt.Errorf("%w: %s: %w", errUndelivered, r.Key, err)
	}
	if _, err := d.sent.MarkSent(ctx, r.Key, d.clock()); err != nil {
		return true, fmt.Errorf("record reminder %s: %w", r.Key, err)
	}
	return true, nil
}
