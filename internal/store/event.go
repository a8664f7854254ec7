package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// openEndedEventLength matches how the scheduler treats events without an
// end time.
const openEndedEventLength = time.Hour

var calendarEventColumns = []string{"id", "title", "location", "start_at", "end_at"}

// eventRepo implements EventRepo for calendar events and, with the global
// sequence counter, for LLM request events.
type eventRepo struct {
	conn dialect.ExecQuerier
	seq  *sequenceCounter
}

func (r *eventRepo) Add(ctx context.Context, ev *Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Start.IsZero() {
		return fmt.Errorf("event %q has no start time", ev.Title)
	}
	if !ev.End.IsZero() && !ev.End.After(ev.Start) {
		return fmt.Errorf("event %q ends before it starts", ev.Title)
	}

	var end any
	if !ev.End.IsZero() {
		end = formatTime(ev.End)
	}
	stmt := builder.Insert("calendar_events").
		Columns(calendarEventColumns...).
		Values(ev.ID, ev.Title, ev.Location, formatTime(ev.Start), end)
	if _, err := exec(ctx, r.conn, stmt); err != nil {
		return fmt.Errorf("add event %q: %w", ev.Title, err)
	}
	return nil
}

func (r *eventRepo) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	fromStr := formatTime(from)
	stmt := builder.Select(calendarEventColumns...).
		From(entsql.Table("calendar_events")).
		Where(entsql.And(
			entsql.LT("start_at", formatTime(to)),
			entsql.Or(
				entsql.GT("end_at", fromStr),
				entsql.And(
					entsql.IsNull("end_at"),
					entsql.GT("start_at", formatTime(from.Add(-openEndedEventLength))),
				),
			),
		)).
		OrderBy("start_at", "id")

	loc := from.Location()
	var out []Event
	err := query(ctx, r.conn, stmt, func(rows *entsql.Rows) error {
		var (
			ev    Event
			start string
			end   sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Location, &start, &end); err != nil {
			return err
		}
		t, err := parseTime(start)
		if err != nil {
			return err
		}
		ev.Start = t.In(loc)
		if end.Valid {
			t, err := parseTime(end.String)
			if err != nil {
				return err
			}
			ev.End = t.In(loc)
		}
		out = append(out, ev)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	n, err := exec(ctx, r.conn, builder.Delete("calendar_events").Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}

var llmEventColumns = []string{
	"sequence", "timestamp", "provider", "model", "purpose", "input_tokens",
	"output_tokens", "latency_ms", "success", "error_message", "request_body", "response_body",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	stmt := builder.Insert("llm_request_events").
		Columns(llmEventColumns...).
		Values(
			seqNum, formatTime(time.Now()), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody,
		)
	if _, err := exec(ctx, r.conn, stmt); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", formatTime(opts.From)))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", formatTime(opts.To)))
	}

	stmt := builder.Select(llmEventColumns...).
		From(entsql.Table("llm_request_events")).
		OrderBy(entsql.Desc("sequence"))
	if len(preds) > 0 {
		stmt.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		stmt.Limit(opts.Limit)
	}

	var out []LLMEventRecord
	err := query(ctx, r.conn, stmt, func(rows *entsql.Rows) error {
		rec, err := scanLLMEvent(rows)
		if err != nil {
			return err
		}
		out = append(out, *rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMEventRecord, error) {
	stmt := builder.Select(llmEventColumns...).
		From(entsql.Table("llm_request_events")).
		Where(entsql.EQ("sequence", id))

	var out *LLMEventRecord
	err := query(ctx, r.conn, stmt, func(rows *entsql.Rows) error {
		rec, err := scanLLMEvent(rows)
		out = rec
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return out, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	stmt := builder.Select(
		"purpose",
		entsql.Count("*"),
		entsql.Sum("input_tokens"),
		entsql.Sum("output_tokens"),
		entsql.Avg("latency_ms"),
	).
		From(entsql.Table("llm_request_events")).
		GroupBy("purpose").
		OrderBy("purpose")

	var out []LLMUsageStats
	err := query(ctx, r.conn, stmt, func(rows *entsql.Rows) error {
		var (
			u   LLMUsageStats
			avg float64
		)
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return err
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LLM usage by purpose: %w", err)
	}
	return out, nil
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error) {
	stmt := builder.Select(
		"model",
		entsql.Count("*"),
		entsql.Sum("input_tokens"),
		entsql.Sum("output_tokens"),
	).
		From(entsql.Table("llm_request_events")).
		GroupBy("model").
		OrderBy("model")

	var out []LLMModelUsage
	err := query(ctx, r.conn, stmt, func(rows *entsql.Rows) error {
		var u LLMModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return err
		}
		out = append(out, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LLM usage by model: %w", err)
	}
	return out, nil
}

func scanLLMEvent(rows *entsql.Rows) (*LLMEventRecord, error) {
	var (
		rec LLMEventRecord
		ts  string
	)
	err := rows.Scan(
		&rec.ID, &ts, &rec.Provider, &rec.Model, &rec.Purpose, &rec.InputTokens,
		&rec.OutputTokens, &rec.LatencyMs, &rec.Success, &rec.ErrorMessage,
		&rec.RequestBody, &rec.ResponseBody,
	)
	if err != nil {
		return nil, err
	}
	if rec.Timestamp, err = parseTime(ts); err != nil {
		return nil, err
	}
	return &rec, nil
}
