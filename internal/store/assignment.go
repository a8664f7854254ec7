package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/studiora/studiora/internal/scheduler"
)

var assignmentColumns = []string{
	"id", "course_id", "title", "description", "due_date", "due_time",
	"type", "hours", "priority", "completed", "created_at", "updated_at",
}

type assignmentRepo struct {
	conn dialect.ExecQuerier
}

func (r *assignmentRepo) Upsert(ctx context.Context, a *Assignment) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	stmt := builder.Insert("assignments").
		Columns(assignmentColumns...).
		Values(
			a.ID, a.CourseID, a.Title, a.Description, formatDate(a.Due), a.DueTime,
			string(a.Type), a.Hours, string(a.Priority), a.Completed,
			formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
		).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, col := range assignmentColumns {
					if col != "id" && col != "created_at" {
						u.SetExcluded(col)
					}
				}
			}),
		)
	if _, err := exec(ctx, r.conn, stmt); err != nil {
		return fmt.Errorf("upsert assignment %s: %w", a.ID, err)
	}
	return nil
}

func (r *assignmentRepo) Get(ctx context.Context, id string) (*Assignment, error) {
	stmt := builder.Select(assignmentColumns...).
		From(entsql.Table("assignments")).
		Where(entsql.EQ("id", id))

	var out *Assignment
	err := query(ctx, r.conn, stmt, func(rows *entsql.Rows) error {
		a, err := scanAssignment(rows)
		out = a
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get assignment %s: %w", id, err)
	}
	if out == nil {
		return nil, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	return out, nil
}

func (r *assignmentRepo) List(ctx context.Context, f AssignmentFilter) ([]Assignment, error) {
	var preds []*entsql.Predicate
	if f.CourseID != "" {
		preds = append(preds, entsql.EQ("course_id", f.CourseID))
	}
	if !f.IncludeCompleted {
		preds = append(preds, entsql.EQ("completed", false))
	}
	if !f.DueFrom.IsZero() {
		preds = append(preds, entsql.GTE("due_date", formatDate(f.DueFrom)))
	}
	if !f.DueTo.IsZero() {
		preds = append(preds, entsql.LT("due_date", formatDate(f.DueTo)))
	}

	stmt := builder.Select(assignmentColumns...).
		From(entsql.Table("assignments")).
		OrderBy("due_date", "due_time", "title")
	if len(preds) > 0 {
		stmt.Where(entsql.And(preds...))
	}

	var out []Assignment
	err := query(ctx, r.conn, stmt, func(rows *entsql.Rows) error {
		a, err := scanAssignment(rows)
		if err != nil {
			return err
		}
		out = append(out, *a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return out, nil
}

func (r *assignmentRepo) SetCompleted(ctx context.Context, id string, completed bool) error {
	stmt := builder.Update("assignments").
		Set("completed", completed).
		Set("updated_at", formatTime(time.Now())).
		Where(entsql.EQ("id", id))
	n, err := exec(ctx, r.conn, stmt)
	if err != nil {
		return fmt.Errorf("update assignment %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *assignmentRepo) Delete(ctx context.Context, id string) error {
	n, err := exec(ctx, r.conn, builder.Delete("assignments").Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("delete assignment %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanAssignment(rows *entsql.Rows) (*Assignment, error) {
	var (
		a                    Assignment
		due, typ, priority   string
		createdAt, updatedAt string
	)
	err := rows.Scan(
		&a.ID, &a.CourseID, &a.Title, &a.Description, &due, &a.DueTime,
		&typ, &a.Hours, &priority, &a.Completed, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Type = scheduler.AssignmentType(typ)
	a.Priority = scheduler.Priority(priority)
	if a.Due, err = parseDate(due); err != nil {
		return nil, fmt.Errorf("due date %q: %w", due, err)
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
