package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

// migrations are idempotent and run in order on every Open.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		priority INTEGER,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		due_date TEXT NOT NULL,
		due_time TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		hours REAL NOT NULL DEFAULT 0,
		priority TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS assignments_course_id ON assignments (course_id)`,
	`CREATE INDEX IF NOT EXISTS assignments_due_date ON assignments (due_date)`,
	`CREATE TABLE IF NOT EXISTS calendar_events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		start_at TEXT NOT NULL,
		end_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS calendar_events_start_at ON calendar_events (start_at)`,
	`CREATE TABLE IF NOT EXISTS schedule_runs (
		sequence INTEGER PRIMARY KEY,
		timestamp TEXT NOT NULL,
		window_start TEXT NOT NULL,
		window_end TEXT NOT NULL,
		stats TEXT NOT NULL,
		allocations TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS study_blocks (
		id TEXT PRIMARY KEY,
		run INTEGER NOT NULL,
		assignment_id TEXT NOT NULL,
		course_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		assignment_title TEXT NOT NULL DEFAULT '',
		assignment_type TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		day TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		hours REAL NOT NULL,
		priority TEXT NOT NULL DEFAULT '',
		energy TEXT NOT NULL DEFAULT '',
		suboptimal INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS study_blocks_start_at ON study_blocks (start_at)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		sequence INTEGER PRIMARY KEY,
		timestamp TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sent_reminders (
		key TEXT PRIMARY KEY,
		sent_at TEXT NOT NULL
	)`,
}

func migrate(ctx context.Context, drv dialect.Driver) error {
	for _, stmt := range migrations {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}
