package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/studiora/studiora/internal/scheduler"
)

var blockColumns = []string{
	"id", "run", "assignment_id", "course_id", "title", "assignment_title",
	"assignment_type", "kind", "day", "start_at", "end_at", "hours",
	"priority", "energy", "suboptimal",
}

// blockBatch is how many blocks go into one INSERT. SQLite caps the bound
// parameters of a statement at 32766.
const blockBatch = 500

var runColumns = []string{"sequence", "timestamp", "window_start", "window_end", "stats", "allocations"}

// scheduleRepo implements ScheduleRepo. A run row and its blocks are
// written in one transaction.
type scheduleRepo struct {
	s *Store
}

func (r *scheduleRepo) Replace(ctx context.Context, sched *scheduler.Schedule, at time.Time) (*ScheduleRun, error) {
	seqNum, err := r.s.seq.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}

	run := &ScheduleRun{
		Sequence:    seqNum,
		Timestamp:   at,
		Start:       sched.Start,
		End:         sched.End,
		Stats:       sched.Statistics(),
		Allocations: sched.Allocations,
	}
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return nil, fmt.Errorf("marshal statistics: %w", err)
	}
	allocs, err := json.Marshal(run.Allocations)
	if err != nil {
		return nil, fmt.Errorf("marshal allocations: %w", err)
	}

	err = r.s.withTx(ctx, func(tx dialect.Tx) error {
		if _, err := exec(ctx, tx, builder.Delete("study_blocks")); err != nil {
			return fmt.Errorf("clear blocks: %w", err)
		}

		insertRun := builder.Insert("schedule_runs").
			Columns(runColumns...).
			Values(seqNum, formatTime(at), formatTime(sched.Start), formatTime(sched.End), string(stats), string(allocs))
		if _, err := exec(ctx, tx, insertRun); err != nil {
			return fmt.Errorf("save run: %w", err)
		}

		for blocks := range slices.Chunk(sched.Blocks, blockBatch) {
			insert := builder.Insert("study_blocks").Columns(blockColumns...)
			for _, b := range blocks {
				insert.Values(
					b.ID, seqNum, b.AssignmentID, b.CourseID, b.Title, b.AssignmentTitle,
					string(b.AssignmentType), string(b.Kind), formatDate(b.Date),
					formatTime(b.Start), formatTime(b.End), b.Hours,
					string(b.Priority), string(b.Energy), b.Suboptimal,
				)
			}
			if _, err := exec(ctx, tx, insert); err != nil {
				return fmt.Errorf("save blocks: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *scheduleRepo) Blocks(ctx context.Context, from, to time.Time) ([]scheduler.Block, error) {
	stmt := builder.Select(blockColumns...).
		From(entsql.Table("study_blocks")).
		Where(entsql.And(
			entsql.GTE("start_at", formatTime(from)),
			entsql.LT("start_at", formatTime(to)),
		)).
		OrderBy("start_at", "id")

	loc := from.Location()
	var out []scheduler.Block
	err := query(ctx, r.s.drv, stmt, func(rows *entsql.Rows) error {
		var (
			b                          scheduler.Block
			run                        int64
			typ, kind, day, start, end string
			priority, energy           string
		)
		err := rows.Scan(
			&b.ID, &run, &b.AssignmentID, &b.CourseID, &b.Title, &b.AssignmentTitle,
			&typ, &kind, &day, &start, &end, &b.Hours,
			&priority, &energy, &b.Suboptimal,
		)
		if err != nil {
			return err
		}
		b.AssignmentType = scheduler.AssignmentType(typ)
		b.Kind = scheduler.BlockKind(kind)
		b.Priority = scheduler.Priority(priority)
		b.Energy = scheduler.EnergyLevel(energy)

		if b.Date, err = time.ParseInLocation(time.DateOnly, day, loc); err != nil {
			return fmt.Errorf("block day %q: %w", day, err)
		}
		t, err := parseTime(start)
		if err != nil {
			return err
		}
		b.Start = t.In(loc)
		if t, err = parseTime(end); err != nil {
			return err
		}
		b.End = t.In(loc)

		out = append(out, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return out, nil
}

func (r *scheduleRepo) LatestRun(ctx context.Context) (*ScheduleRun, error) {
	stmt := builder.Select(runColumns...).
		From(entsql.Table("schedule_runs")).
		OrderBy(entsql.Desc("sequence")).
		Limit(1)

	var out *ScheduleRun
	err := query(ctx, r.s.drv, stmt, func(rows *entsql.Rows) error {
		var (
			run                           ScheduleRun
			ts, start, end, stats, allocs string
		)
		if err := rows.Scan(&run.Sequence, &ts, &start, &end, &stats, &allocs); err != nil {
			return err
		}
		var err error
		if run.Timestamp, err = parseTime(ts); err != nil {
			return err
		}
		if run.Start, err = parseTime(start); err != nil {
			return err
		}
		if run.End, err = parseTime(end); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(stats), &run.Stats); err != nil {
			return fmt.Errorf("unmarshal statistics: %w", err)
		}
		if err := json.Unmarshal([]byte(allocs), &run.Allocations); err != nil {
			return fmt.Errorf("unmarshal allocations: %w", err)
		}
		out = &run
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	return out, nil
}

func (r *scheduleRepo) PruneRuns(ctx context.Context, keep int) error {
	// Find the sequence of the newest run that falls outside keep.
	stmt := builder.Select("sequence").
		From(entsql.Table("schedule_runs")).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1)

	var threshold int64
	err := query(ctx, r.s.drv, stmt, func(rows *entsql.Rows) error {
		return rows.Scan(&threshold)
	})
	if err != nil {
		return fmt.Errorf("query runs for prune: %w", err)
	}
	if threshold == 0 {
		return nil // fewer than keep runs exist
	}

	if _, err := exec(ctx, r.s.drv, builder.Delete("schedule_runs").Where(entsql.LTE("sequence", threshold))); err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return nil
}
