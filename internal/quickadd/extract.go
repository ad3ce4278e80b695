// Package quickadd turns a free-form phrase such as "Buy milk tomorrow"
// into a task title, an optional due date and urgency tags.
//
// Extraction is keyword based. Exactly one temporal phrase is consumed,
// chosen by priority: an explicit YYYY-MM-DD date, then today/tomorrow,
// then a weekday name, then "next week". Other temporal words stay in the
// title untouched.
package quickadd

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/teemow/gtasks-mcp/internal/dates"
)

// Result is the outcome of Extract.
type Result struct {
	Title string
	Due   time.Time // zero when no temporal phrase was found
	Tags  []string
}

// HasDue reports whether a due date was extracted.
func (r Result) HasDue() bool { return !r.Due.IsZero() }

var (
	isoDateRe  = regexp.MustCompile(`(?i)\b(?:(?:on|by|due)\s+)?(\d{4}-\d{2}-\d{2})\b`)
	relativeRe = regexp.MustCompile(`(?i)\b(?:(?:on|by|due)\s+)?(today|tomorrow)\b`)
	weekdayRe  = regexp.MustCompile(`(?i)\b(?:(?:on|by|due|this|next)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	nextWeekRe = regexp.MustCompile(`(?i)\b(?:(?:by|due)\s+)?next\s+week\b`)
	urgencyRe  = regexp.MustCompile(`(?i)\b(urgent|asap|important)\b`)
	scaffoldRe = regexp.MustCompile(`(?i)^(?:remind me to|don['’]t forget to|need to)\b\s*`)
	spaceRe    = regexp.MustCompile(`\s+`)
	dangleRe   = regexp.MustCompile(`\s+([,;:.!?])`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

const edgeCutset = " \t\r\n,;:.-!?–—"

// Extract parses text relative to the calendar date of now, in now's
// location. It never fails.
func Extract(text string, now time.Time) Result {
	today := dates.Day(now)
	rest := text

	var res Result
	rest, res.Due = extractDue(rest, today)

	for _, m := range urgencyRe.FindAllString(rest, -1) {
		tag := strings.ToLower(m)
		if !contains(res.Tags, tag) {
			res.Tags = append(res.Tags, tag)
		}
	}
	rest = urgencyRe.ReplaceAllString(rest, " ")

	rest = tidy(rest)
	rest = tidy(scaffoldRe.ReplaceAllString(rest, ""))

	if rest == "" {
		rest = strings.TrimSpace(text)
	}
	res.Title = rest
	return res
}

func extractDue(s string, today time.Time) (string, time.Time) {
	for _, loc := range isoDateRe.FindAllStringSubmatchIndex(s, -1) {
		if possessive(s, loc[1]) {
			continue
		}
		d, err := dates.Parse(s[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		return cut(s, loc[0], loc[1]), d
	}

	if loc := firstStandalone(relativeRe, s); loc != nil {
		due := today
		if strings.EqualFold(s[loc[2]:loc[3]], "tomorrow") {
			due = dates.AddDays(today, 1)
		}
		return cut(s, loc[0], loc[1]), due
	}

	if loc := firstStandalone(weekdayRe, s); loc != nil {
		want := weekdays[strings.ToLower(s[loc[2]:loc[3]])]
		delta := (int(want) - int(today.Weekday()) + 7) % 7
		return cut(s, loc[0], loc[1]), dates.AddDays(today, delta)
	}

	if loc := firstStandalone(nextWeekRe, s); loc != nil {
		return cut(s, loc[0], loc[1]), dates.AddDays(today, 7)
	}

	return s, time.Time{}
}

// firstStandalone returns the submatch indexes of the first match of re in
// s that is not used as a possessive, as in "today's notes".
func firstStandalone(re *regexp.Regexp, s string) []int {
	for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
		if !possessive(s, loc[1]) {
			return loc
		}
	}
	return nil
}

// possessive reports whether the word ending at end is followed by 's.
func possessive(s string, end int) bool {
	rest := s[end:]
	for _, apostrophe := range []string{"'", "’"} {
		if !strings.HasPrefix(rest, apostrophe) {
			continue
		}
		rest = strings.TrimPrefix(rest, apostrophe)
		if strings.HasPrefix(rest, "s") || strings.HasPrefix(rest, "S") {
			next, _ := utf8.DecodeRuneInString(rest[1:])
			return len(rest) == 1 || !isWordRune(next)
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func cut(s string, start, end int) string {
	return s[:start] + " " + s[end:]
}

func tidy(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	s = dangleRe.ReplaceAllString(s, "$1")
	return strings.Trim(s, edgeCutset)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
