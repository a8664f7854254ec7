package syllabus

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	fenceRE         = regexp.MustCompile("(?i)```(?:json)?")
	markdownLineRE  = regexp.MustCompile(`(?m)^[>#].*$`)
	bulletRE        = regexp.MustCompile(`(?m)^\s*\*`)
	trailingCommaRE = regexp.MustCompile(`,\s*([}\]])`)
	newlineRE       = regexp.MustCompile(`[\r\n]+`)

	quoteReplacer = strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", `"`, "”", `"`,
	)
)

// Sanitize recovers a JSON document from chatty model output. It strips
// code fences, markdown quote and heading lines, and leading bullets,
// keeps the span from the first '{' or '[' to the last '}' or ']', removes
// trailing commas, straightens curly quotes and drops line breaks.
func Sanitize(raw string) (json.RawMessage, error) {
	s := fenceRE.ReplaceAllString(raw, "")
	s = markdownLineRE.ReplaceAllString(s, "")
	s = bulletRE.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	end := max(strings.LastIndex(s, "}"), strings.LastIndex(s, "]"))
	if start < 0 || end < start {
		return nil, errors.New("no JSON structure in response")
	}
	s = s[start : end+1]

	s = trailingCommaRE.ReplaceAllString(s, "$1")
	s = quoteReplacer.Replace(s)
	s = newlineRE.ReplaceAllString(s, "")

	if !json.Valid([]byte(s)) {
		return nil, errors.New("response is not valid JSON after cleanup")
	}
	return json.RawMessage(s), nil
}
