package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type reminderLog struct {
	conn dialect.ExecQuerier
}

func (r *reminderLog) MarkSent(ctx context.Context, key string, at time.Time) (bool, error) {
	stmt := builder.Insert("sent_reminders").
		Columns("key", "sent_at").
		Values(key, formatTime(at)).
		OnConflict(entsql.ConflictColumns("key"), entsql.DoNothing())
	n, err := exec(ctx, r.conn, stmt)
	if err != nil {
		return false, fmt.Errorf("mark reminder %s: %w", key, err)
	}
	return n > 0, nil
}

func (r *reminderLog) WasSent(ctx context.Context, key string) (bool, error) {
	stmt := builder.Select("key").
		From(entsql.Table("sent_reminders")).
		Where(entsql.EQ("key", key))

	var found bool
	err := query(ctx, r.conn, stmt, func(rows *entsql.Rows) error {
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("lookup reminder %s: %w", key, err)
	}
	return found, nil
}

func (r *reminderLog) Prune(ctx context.Context, before time.Time) error {
	stmt := builder.Delete("sent_reminders").Where(entsql.LT("sent_at", formatTime(before)))
	if _, err := exec(ctx, r.conn, stmt); err != nil {
		return fmt.Errorf("prune reminders: %w", err)
	}
	return nil
}
