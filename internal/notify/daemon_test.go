package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiora/studiora/internal/config"
	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
)

type recordingSender struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (s *recordingSender) Send(_ context.Context, r Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("offline")
	}
	s.keys = append(s.keys, r.Key)
	return nil
}

func (s *recordingSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func seededRepos(t *testing.T) Repos {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "studiora.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	blocks, assignments := fixture()
	for i := range blocks {
		blocks[i].Date = time.Date(2025, 3, blocks[i].Start.Day(), 0, 0, 0, 0, time.UTC)
		blocks[i].Kind = scheduler.KindStudy
	}
	_, err = st.ScheduleRepo().Replace(ctx, &scheduler.Schedule{Blocks: blocks, Start: date(3), End: date(10)}, now)
	require.NoError(t, err)
	for _, a := range assignments {
		a.Type = scheduler.TypeExam
		require.NoError(t, st.AssignmentRepo().Upsert(ctx, &store.Assignment{Assignment: a}))
	}
	return Repos{Schedule: st.ScheduleRepo(), Assignments: st.AssignmentRepo(), Sent: st.ReminderLog()}
}

func TestDaemonTick(t *testing.T) {
	ctx := context.Background()
	repos := seededRepos(t)
	clk := &clock{t: at(3, 13, 46)}
	sender := &recordingSender{}
	d := NewDaemon(repos, sender, allOn(), WithClock(clk.now), WithLocation(time.UTC))

	require.NoError(t, d.Tick(ctx))
	assert.Equal(t, []string{"study:b1"}, sender.sent())

	// Nothing new between ticks.
	clk.set(at(3, 13, 47))
	require.NoError(t, d.Tick(ctx))
	assert.Len(t, sender.sent(), 1)

	// A long gap delivers everything in between, in order.
	clk.set(at(4, 9, 0))
	require.NoError(t, d.Tick(ctx))
	assert.Equal(t, []string{"study:b1", "assign_3h:a2", "study:b3", "assign_3h:a1"}, sender.sent())
}

func TestDaemonDeduplicatesAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	repos := seededRepos(t)
	clk := &clock{t: at(3, 13, 46)}

	first := &recordingSender{}
	require.NoError(t, NewDaemon(repos, first, allOn(), WithClock(clk.now), WithLocation(time.UTC)).Tick(ctx))
	require.Equal(t, []string{"study:b1"}, first.sent())

	second := &recordingSender{}
	require.NoError(t, NewDaemon(repos, second, allOn(), WithClock(clk.now), WithLocation(time.UTC)).Tick(ctx))
	assert.Empty(t, second.sent())
}

func TestDaemonRetriesFailedSend(t *testing.T) {
	ctx := context.Background()
	repos := seededRepos(t)
	clk := &clock{t: at(3, 13, 46)}
	sender := &recordingSender{fail: true}
	d := NewDaemon(repos, sender, allOn(), WithClock(clk.now), WithLocation(time.UTC))

	require.NoError(t, d.Tick(ctx))
	ok, err := repos.Sent.WasSent(ctx, "study:b1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, sender.sent())

	sender.mu.Lock()
	sender.fail = false
	sender.mu.Unlock()
	clk.set(at(3, 13, 47))
	require.NoError(t, d.Tick(ctx))
	assert.Equal(t, []string{"study:b1"}, sender.sent())

	ok, err = repos.Sent.WasSent(ctx, "study:b1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Delivered once; later ticks do not resend it.
	clk.set(at(3, 13, 48))
	require.NoError(t, d.Tick(ctx))
	assert.Equal(t, []string{"study:b1"}, sender.sent())
}

func TestResumeFrom(t *testing.T) {
	now := at(3, 14, 0)
	assert.Equal(t, now, resumeFrom(now, time.Time{}))
	assert.Equal(t, at(3, 13, 45).Add(-time.Nanosecond), resumeFrom(now, at(3, 13, 45)))
	assert.Equal(t, now.Add(-retryWindow), resumeFrom(now, at(3, 9, 0)))
}

func TestDaemonDisabled(t *testing.T) {
	repos := seededRepos(t)
	clk := &clock{t: at(3, 13, 46)}
	sender := &recordingSender{}
	s := allOn()
	s.Enabled = false
	d := NewDaemon(repos, sender, s, WithClock(clk.now), WithLocation(time.UTC))

	require.NoError(t, d.Tick(context.Background()))
	assert.Empty(t, sender.sent())

	d.Apply(allOn())
	assert.True(t, d.Settings().Enabled)
}

func TestDaemonSendSummary(t *testing.T) {
	ctx := context.Background()
	repos := seededRepos(t)
	clk := &clock{t: at(4, 8, 0)}
	sender := &recordingSender{}
	d := NewDaemon(repos, sender, allOn(), WithClock(clk.now), WithLocation(time.UTC))

	require.NoError(t, d.SendSummary(ctx))
	require.NoError(t, d.SendSummary(ctx))
	assert.Equal(t, []string{"daily_summary:2025-03-04"}, sender.sent())
}

func TestDaemonRunAppliesConfigUpdates(t *testing.T) {
	repos := seededRepos(t)
	d := NewDaemon(repos, &recordingSender{}, allOn(), WithLocation(time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan *config.Config, 1)
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, updates) }()

	cfg := config.Default()
	cfg.Notify.ReminderMinutes = 30
	updates <- cfg

	assert.Eventually(t, func() bool { return d.Settings().ReminderMinutes == 30 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestLogSender(t *testing.T) {
	var buf strings.Builder
	s := LogSender{Log: zerolog.New(&buf)}
	require.NoError(t, s.Send(context.Background(), Reminder{Key: "study:b1", Kind: KindStudy, Title: "Study Session Starting Soon"}))
	assert.Contains(t, buf.String(), `"key":"study:b1"`)
	assert.Contains(t, buf.String(), `"message":"Study Session Starting Soon"`)
}

func TestSendersJoinErrors(t *testing.T) {
	ok := &recordingSender{}
	err := Senders{&recordingSender{fail: true}, ok}.Send(context.Background(), Reminder{Key: "k"})
	assert.Error(t, err)
	assert.Equal(t, []string{"k"}, ok.sent())
}

func TestTelegramSender(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"studiora","username":"studiora_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			bodies = append(bodies, string(b))
			mu.Unlock()
			io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s, err := NewTelegramSender(config.TelegramConfig{Token: "123:abc", ChatID: 42}, WithAPIURL(srv.URL))
	require.NoError(t, err)
	require.NoError(t, s.Send(context.Background(), Reminder{Key: "study:b1", Title: "Study Session Starting Soon", Body: "Care plan in 15 minutes"}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "42")
	assert.Contains(t, bodies[0], "Care plan in 15 minutes")
}

func TestNewTelegramSenderValidates(t *testing.T) {
	_, err := NewTelegramSender(config.TelegramConfig{ChatID: 1})
	assert.Error(t, err)
	_, err = NewTelegramSender(config.TelegramConfig{Token: "t"})
	assert.Error(t, err)
}
