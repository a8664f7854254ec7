package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

var courseColumns = []string{"id", "name", "code", "priority", "created_at", "updated_at"}

type courseRepo struct {
	s *Store
}

func (r *courseRepo) Upsert(ctx context.Context, c *Course) error {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	var priority any
	if c.Priority != nil {
		priority = *c.Priority
	}

	stmt := builder.Insert("courses").
		Columns(courseColumns...).
		Values(c.ID, c.Name, c.Code, priority, formatTime(c.CreatedAt), formatTime(c.UpdatedAt)).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("name")
				u.SetExcluded("code")
				u.SetExcluded("priority")
				u.SetExcluded("updated_at")
			}),
		)
	if _, err := exec(ctx, r.s.drv, stmt); err != nil {
		return fmt.Errorf("upsert course %s: %w", c.ID, err)
	}
	return nil
}

func (r *courseRepo) Get(ctx context.Context, id string) (*Course, error) {
	stmt := builder.Select(courseColumns...).
		From(entsql.Table("courses")).
		Where(entsql.EQ("id", id))

	var out *Course
	err := query(ctx, r.s.drv, stmt, func(rows *entsql.Rows) error {
		c, err := scanCourse(rows)
		out = c
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get course %s: %w", id, err)
	}
	if out == nil {
		return nil, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}
	return out, nil
}

func (r *courseRepo) List(ctx context.Context) ([]Course, error) {
	stmt := builder.Select(courseColumns...).
		From(entsql.Table("courses")).
		OrderBy("name", "id")

	var out []Course
	err := query(ctx, r.s.drv, stmt, func(rows *entsql.Rows) error {
		c, err := scanCourse(rows)
		if err != nil {
			return err
		}
		out = append(out, *c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return out, nil
}

func (r *courseRepo) Delete(ctx context.Context, id string) error {
	return r.s.withTx(ctx, func(tx dialect.Tx) error {
		n, err := exec(ctx, tx, builder.Delete("courses").Where(entsql.EQ("id", id)))
		if err != nil {
			return fmt.Errorf("delete course %s: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("course %s: %w", id, ErrNotFound)
		}
		if _, err := exec(ctx, tx, builder.Delete("assignments").Where(entsql.EQ("course_id", id))); err != nil {
			return fmt.Errorf("delete assignments of course %s: %w", id, err)
		}
		return nil
	})
}

func scanCourse(rows *entsql.Rows) (*Course, error) {
	var (
		c                    Course
		priority             sql.NullInt64
		createdAt, updatedAt string
	)
	if err := rows.Scan(&c.ID, &c.Name, &c.Code, &priority, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if priority.Valid {
		p := int(priority.Int64)
		c.Priority = &p
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
