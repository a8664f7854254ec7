package syllabus

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/studiora/studiora/internal/scheduler"
)

// dateSearchRadius is how many lines above and below a keyword line are
// searched for a due date.
const dateSearchRadius = 3

// defaultDueOffset is used when no date is found near an assignment.
const defaultDueOffset = 7 * 24 * time.Hour

var (
	keywordRE = regexp.MustCompile(`(?i)\b(?:assignment|quiz|exam|test|project|paper|discussion|reading|chapter|video|lab|homework|worksheet|case\s*study|activity|exercise|review|study|complete|submit|turn\s*in|due|hesi|clinical|simulation|vsim|reflection|attestation|remediation|prep)[\s:]*\S`)

	numericDateRE = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	monthFirstRE  = regexp.MustCompile(`\b([A-Za-z]+)\.?\s+(\d{1,2}),?\s+(\d{4})\b`)
	dayFirstRE    = regexp.MustCompile(`\b(\d{1,2})\s+([A-Za-z]+)\.?,?\s+(\d{4})\b`)

	timeRE = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\b|\b(\d{1,2}):(\d{2})\b`)

	edgeRE        = regexp.MustCompile(`^[\s\-:•*]+|[\s\-:•*]+$`)
	leadingVerbRE = regexp.MustCompile(`(?i)^(?:due|submit|complete|turn in|assignment|quiz|exam|test)[\s:]+`)
	spaceRE       = regexp.MustCompile(`\s+`)
)

var typeRules = []struct {
	re  *regexp.Regexp
	typ scheduler.AssignmentType
}{
	{regexp.MustCompile(`\b(?:final.*exam|midterm.*exam|hesi.*exam)\b`), scheduler.TypeExam},
	{regexp.MustCompile(`\bclinical\b`), scheduler.TypeClinical},
	{regexp.MustCompile(`\b(?:simulation|sim|vsim)\b`), scheduler.TypeSimulation},
	{regexp.MustCompile(`\bquiz\b`), scheduler.TypeQuiz},
	{regexp.MustCompile(`\bremediation\b`), scheduler.TypeRemediation},
	{regexp.MustCompile(`\b(?:prep|preparation)\b`), scheduler.TypePrep},
	{regexp.MustCompile(`\bproject\b`), scheduler.TypeProject},
	{regexp.MustCompile(`\b(?:paper|essay|report)\b`), scheduler.TypePaper},
	{regexp.MustCompile(`\b(?:reading|chapter|textbook)\b`), scheduler.TypeReading},
	{regexp.MustCompile(`\b(?:video|watch|view)\b`), scheduler.TypeVideo},
	{regexp.MustCompile(`\b(?:discussion|forum|post)\b`), scheduler.TypeDiscussion},
	{regexp.MustCompile(`\b(?:lab|laboratory)\b`), scheduler.TypeLab},
	{regexp.MustCompile(`\b(?:activity|exercise)\b`), scheduler.TypeActivity},
}

// baseHours differs from the scheduler's estimates: these are what the
// parser proposes as the declared hours of a new assignment.
var baseHours = map[scheduler.AssignmentType]float64{
	scheduler.TypeExam:        3,
	scheduler.TypeQuiz:        1,
	scheduler.TypeClinical:    8,
	scheduler.TypeSimulation:  2,
	scheduler.TypeReading:     2,
	scheduler.TypeVideo:       0.5,
	scheduler.TypeDiscussion:  1,
	scheduler.TypeLab:         3,
	scheduler.TypeProject:     6,
	scheduler.TypePaper:       4,
	scheduler.TypeActivity:    1,
	scheduler.TypeRemediation: 2.5,
	scheduler.TypePrep:        2,
	scheduler.TypeAssignment:  2,
}

var (
	majorRE    = regexp.MustCompile(`\b(?:final|comprehensive|major)\b`)
	urgentRE   = regexp.MustCompile(`\b(?:urgent|asap|immediately)\b`)
	highRE     = regexp.MustCompile(`\b(?:final|midterm|hesi.*exam|clinical|exam|test|project|paper|quiz)\b`)
	optionalRE = regexp.MustCompile(`\b(?:optional|extra|bonus)\b`)
)

// ParseText extracts assignments line by line without a model. A line
// containing a coursework keyword becomes an assignment; its due date is
// the first date found within three lines of it, and now+7 days otherwise.
// Results are deduplicated by title and date and sorted by date.
func ParseText(text string, now time.Time) []Draft {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	fallback := now.Add(defaultDueOffset).Format(time.DateOnly)

	var drafts []Draft
	for i, line := range lines {
		if !keywordRE.MatchString(line) {
			continue
		}
		title := cleanTitle(line)
		if title == "" {
			continue
		}

		date := fallback
		for j := max(0, i-dateSearchRadius); j <= min(len(lines)-1, i+dateSearchRadius); j++ {
			if d, ok := findDate(lines[j], now); ok {
				date = d.Format(time.DateOnly)
				break
			}
		}

		lower := strings.ToLower(line)
		typ := classify(lower)
		drafts = append(drafts, Draft{
			Title:    title,
			Type:     string(typ),
			Date:     date,
			Time:     findTime(line),
			Hours:    Hours(estimateHours(lower, typ)),
			Priority: string(priorityOf(lower)),
		})
	}

	return dedupeAndSort(drafts)
}

// dedupeAndSort keeps the first draft per case-insensitive title and date
// and orders the rest by date.
func dedupeAndSort(drafts []Draft) []Draft {
	seen := make(map[string]bool, len(drafts))
	out := drafts[:0]
	for _, d := range drafts {
		key := strings.ToLower(d.Title) + "|" + d.Date
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date < out[b].Date })
	return out
}

func cleanTitle(line string) string {
	s := edgeRE.ReplaceAllString(line, "")
	s = leadingVerbRE.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}

func classify(lower string) scheduler.AssignmentType {
	for _, r := range typeRules {
		if r.re.MatchString(lower) {
			return r.typ
		}
	}
	return scheduler.TypeAssignment
}

func estimateHours(lower string, typ scheduler.AssignmentType) float64 {
	h, ok := baseHours[typ]
	if !ok {
		h = 2
	}
	if majorRE.MatchString(lower) {
		h *= 1.5
	}
	return math.Round(h*2) / 2
}

func priorityOf(lower string) scheduler.Priority {
	switch {
	case urgentRE.MatchString(lower):
		return scheduler.PriorityUrgent
	case highRE.MatchString(lower):
		return scheduler.PriorityHigh
	case optionalRE.MatchString(lower):
		return scheduler.PriorityLow
	default:
		return scheduler.PriorityMedium
	}
}

// findDate returns the first plausible date on line. Years outside one year
// before to two years after now are rejected as noise.
func findDate(line string, now time.Time) (time.Time, bool) {
	type candidate struct {
		pos int
		t   time.Time
	}
	var found []candidate

	for _, m := range numericDateRE.FindAllStringSubmatchIndex(line, -1) {
		month, _ := strconv.Atoi(line[m[2]:m[3]])
		day, _ := strconv.Atoi(line[m[4]:m[5]])
		year, _ := strconv.Atoi(line[m[6]:m[7]])
		if m[7]-m[6] == 2 {
			year += 2000
		} else if m[7]-m[6] == 3 {
			continue
		}
		if t, ok := civilDate(year, month, day); ok {
			found = append(found, candidate{m[0], t})
		}
	}
	for _, m := range monthFirstRE.FindAllStringSubmatchIndex(line, -1) {
		month, ok := monthNumber(line[m[2]:m[3]])
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(line[m[4]:m[5]])
		year, _ := strconv.Atoi(line[m[6]:m[7]])
		if t, ok := civilDate(year, month, day); ok {
			found = append(found, candidate{m[0], t})
		}
	}
	for _, m := range dayFirstRE.FindAllStringSubmatchIndex(line, -1) {
		month, ok := monthNumber(line[m[4]:m[5]])
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(line[m[2]:m[3]])
		year, _ := strconv.Atoi(line[m[6]:m[7]])
		if t, ok := civilDate(year, month, day); ok {
			found = append(found, candidate{m[0], t})
		}
	}

	best := -1
	for i, c := range found {
		if c.t.Year() < now.Year()-1 || c.t.Year() > now.Year()+2 {
			continue
		}
		if best < 0 || c.pos < found[best].pos {
			best = i
		}
	}
	if best < 0 {
		return time.Time{}, false
	}
	return found[best].t, true
}

func civilDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

func monthNumber(name string) (int, bool) {
	name = strings.ToLower(name)
	if m, ok := months[name]; ok {
		return m, true
	}
	for i := time.January; i <= time.December; i++ {
		if strings.ToLower(i.String()) == name {
			return int(i), true
		}
	}
	return 0, false
}

// findTime returns the first time of day on line as HH:MM, or 23:59.
func findTime(line string) string {
	m := timeRE.FindStringSubmatch(line)
	if m == nil {
		return "23:59"
	}

	var hour, minute int
	if m[1] != "" {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 {
			return "23:59"
		}
		pm := strings.EqualFold(m[3], "p")
		if hour == 12 {
			hour = 0
		}
		if pm {
			hour += 12
		}
	} else {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
	}
	if hour > 23 || minute > 59 {
		return "23:59"
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
