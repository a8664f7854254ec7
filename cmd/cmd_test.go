package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
)

type cliFixture struct {
	t      *testing.T
	db     string
	config string
}

func newCLI(t *testing.T) *cliFixture {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	body := "timezone: UTC\nlog:\n  level: error\n  console: false\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return &cliFixture{t: t, db: filepath.Join(dir, "studiora.db"), config: cfg}
}

func (c *cliFixture) run(args ...string) {
	c.t.Helper()
	rootCmd.SetArgs(append(args, "--db", c.db, "--config", c.config))
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		c.t.Fatalf("studiora %s: %v", strings.Join(args, " "), err)
	}
}

func (c *cliFixture) store() *store.Store {
	c.t.Helper()
	st, err := store.Open(c.db)
	if err != nil {
		c.t.Fatal(err)
	}
	c.t.Cleanup(func() { st.Close() })
	return st
}

func TestCLIWorkflow(t *testing.T) {
	cli := newCLI(t)
	ctx := context.Background()
	today := time.Now().UTC()

	cli.run("course", "add", "Pharmacology", "--code", "NURS 210")
	courses, err := cli.store().CourseRepo().List(ctx)
	if err != nil || len(courses) != 1 {
		t.Fatalf("courses = %v, err = %v", courses, err)
	}
	courseID := courses[0].ID

	due := today.AddDate(0, 0, 6).Format(time.DateOnly)
	cli.run("assignment", "add", "Care plan", "-c", courseID[:6], "-d", due, "-t", "paper", "--hours", "4", "-p", "high")

	list, err := cli.store().AssignmentRepo().List(ctx, store.AssignmentFilter{})
	if err != nil || len(list) != 1 {
		t.Fatalf("assignments = %v, err = %v", list, err)
	}
	a := list[0]
	if a.CourseID != courseID || a.Type != scheduler.TypePaper || a.Priority != scheduler.PriorityHigh {
		t.Errorf("stored assignment = %+v", a.Assignment)
	}

	cli.run("schedule", "generate", "--until", today.AddDate(0, 0, 10).Format(time.DateOnly))

	st := cli.store()
	run, err := st.ScheduleRepo().LatestRun(ctx)
	if err != nil || run == nil {
		t.Fatalf("latest run = %v, err = %v", run, err)
	}
	blocks, err := st.ScheduleRepo().Blocks(ctx, startOfDay(today), today.AddDate(0, 0, 11))
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) == 0 {
		t.Fatal("expected planned blocks")
	}
	for _, b := range blocks {
		if b.AssignmentID != a.ID {
			t.Errorf("block for unknown assignment %q", b.AssignmentID)
		}
	}

	cli.run("prefs", "set", "dailyMaxHours=3", "energy.friday=0.6")
	prefs, err := storedPreferences(ctx, cli.store().SettingsRepo())
	if err != nil {
		t.Fatal(err)
	}
	if prefs.DailyMaxHours != 3 || prefs.Energy[time.Friday] != 0.6 {
		t.Errorf("prefs = %+v", prefs)
	}

	cli.run("assignment", "done", a.ID[:6])
	got, err := cli.store().AssignmentRepo().Get(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completed {
		t.Error("assignment should be completed")
	}

	out := filepath.Join(t.TempDir(), "backup.json")
	cli.run("backup", "export", "-o", out)
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"Care plan"`, `"Pharmacology"`, store.KeySchedulerPreferences} {
		if !strings.Contains(string(b), want) {
			t.Errorf("backup missing %s", want)
		}
	}
}

func TestCLIParse(t *testing.T) {
	cli := newCLI(t)
	ctx := context.Background()

	cli.run("course", "add", "Med-Surg")
	courses, err := cli.store().CourseRepo().List(ctx)
	if err != nil || len(courses) == 0 {
		t.Fatalf("courses = %v, err = %v", courses, err)
	}
	var courseID string
	for _, c := range courses {
		if c.Name == "Med-Surg" {
			courseID = c.ID
		}
	}

	year := time.Now().Year()
	syllabus := filepath.Join(t.TempDir(), "syllabus.txt")
	text := "Week 3\nQuiz 1: Fluids and electrolytes\nDue 03/14/" + strconv.Itoa(year) + " 9:00 am\n"
	if err := os.WriteFile(syllabus, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	cli.run("parse", syllabus, "-c", courseID)

	list, err := cli.store().AssignmentRepo().List(ctx, store.AssignmentFilter{CourseID: courseID, IncludeCompleted: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) == 0 {
		t.Fatal("expected parsed assignments")
	}
	found := false
	for _, a := range list {
		if a.Type == scheduler.TypeQuiz && a.Due.Format("01-02") == "03-14" {
			found = true
		}
	}
	if !found {
		t.Errorf("quiz due 03-14 not imported: %+v", list)
	}
}
