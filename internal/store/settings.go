package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// Settings keys.
const (
	KeySchedulerPreferences = "scheduler.preferences"
)

type settingsRepo struct {
	conn dialect.ExecQuerier
}

func (r *settingsRepo) Get(ctx context.Context, key string, v any) (bool, error) {
	stmt := builder.Select("value").
		From(entsql.Table("settings")).
		Where(entsql.EQ("key", key))

	var (
		raw   string
		found bool
	)
	err := query(ctx, r.conn, stmt, func(rows *entsql.Rows) error {
		found = true
		return rows.Scan(&raw)
	})
	if err != nil {
		return false, fmt.Errorf("get setting %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decode setting %s: %w", key, err)
	}
	return true, nil
}

func (r *settingsRepo) Put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	stmt := builder.Insert("settings").
		Columns("key", "value", "updated_at").
		Values(key, string(b), formatTime(time.Now())).
		OnConflict(entsql.ConflictColumns("key"), entsql.ResolveWithNewValues())
	if _, err := exec(ctx, r.conn, stmt); err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

func (r *settingsRepo) Delete(ctx context.Context, key string) error {
	if _, err := exec(ctx, r.conn, builder.Delete("settings").Where(entsql.EQ("key", key))); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}
