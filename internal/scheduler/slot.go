package scheduler

import "time"

const (
	// slotStep is the granularity of candidate start times.
	slotStep = 30 * time.Minute

	// fallbackHour is where a block goes when no window has room.
	fallbackHour = 19

	defaultEventLength = time.Hour
)

func findBestTimeSlot(prefs Preferences, loc *time.Location, day time.Time, hours float64, events []Event, t AssignmentType) Slot {
	day = dayIn(day.In(loc), loc)
	dayEvents := eventsOn(day, events)

	for _, w := range prefs.preferredWindows(t) {
		if slot, ok := scanWindow(day, w, hours, dayEvents); ok {
			return slot
		}
	}

	for _, w := range prefs.windows(prefs.periodsByWeight()) {
		if slot, ok := scanWindow(day, w, hours, dayEvents); ok {
			return slot
		}
	}

	start := atHour(day, fallbackHour)
	return Slot{Date: day, Start: start, End: start.Add(hoursToDuration(hours))}
}

// scanWindow returns the first conflict-free slot that fits inside w.
func scanWindow(day time.Time, w Window, hours float64, events []Event) (Slot, bool) {
	windowStart := atHour(day, w.Start)
	windowEnd := atHour(day, w.End)
	length := hoursToDuration(hours)

	for start := windowStart; start.Before(windowEnd); start = start.Add(slotStep) {
		end := start.Add(length)
		if end.After(windowEnd) {
			break
		}
		if !conflicts(start, end, events) {
			return Slot{Date: day, Start: start, End: end}, true
		}
	}
	return Slot{}, false
}

// eventsOn returns the events that overlap the given day.
func eventsOn(day time.Time, events []Event) []Event {
	next := day.AddDate(0, 0, 1)
	var out []Event
	for _, ev := range events {
		if ev.Start.IsZero() {
			continue
		}
		if overlaps(day, next, ev.Start, ev.end()) {
			out = append(out, ev)
		}
	}
	return out
}

func conflicts(start, end time.Time, events []Event) bool {
	for _, ev := range events {
		if overlaps(start, end, ev.Start, ev.end()) {
			return true
		}
	}
	return false
}

// overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func (ev Event) end() time.Time {
	if ev.End.IsZero() {
		return ev.Start.Add(defaultEventLength)
	}
	return ev.End
}

func atHour(day time.Time, hour int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, day.Location())
}
