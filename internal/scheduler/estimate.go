package scheduler

import (
	"math"
	"slices"
	"sort"
	"time"
)

// Prioritize returns a copy of assignments in placement order:
//  1. Priority rank (urgent first)
//  2. Earliest due date
//  3. Highest course priority
//  4. Largest declared hours
//
// The sort is stable, so equal assignments keep their input order.
func Prioritize(assignments []Assignment, courses []Course) []Assignment {
	coursePriority := make(map[string]int, len(courses))
	for _, c := range courses {
		if c.Priority != nil {
			coursePriority[c.ID] = *c.Priority
		}
	}

	out := slices.Clone(assignments)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := PriorityRank(a.Priority), PriorityRank(b.Priority); ra != rb {
			return ra < rb
		}
		if da, db := dateOf(a.Due), dateOf(b.Due); da != db {
			return da < db
		}
		if ca, cb := coursePriority[a.CourseID], coursePriority[b.CourseID]; ca != cb {
			return ca > cb
		}
		return a.Hours > b.Hours
	})
	return out
}

// RequiredHours computes the study quota for an assignment, rounded to the
// nearest half hour. Exams get ReviewPercentage on top.
func RequiredHours(a Assignment, prefs Preferences) float64 {
	base := a.Hours
	if base <= 0 {
		base = EstimateHours(a.Type)
	}

	total := base * PriorityMultiplier(a.Priority) * TypeMultiplier(a.Type)
	if a.Type == TypeExam {
		total += total * prefs.ReviewPercentage
	}
	return roundHalfHour(total)
}

func roundHalfHour(h float64) float64 {
	return math.Round(h*2) / 2
}

// dateOf packs a calendar date into a comparable integer.
func dateOf(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
