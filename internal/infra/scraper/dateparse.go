package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	slashDatePattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	dotDatePattern   = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	isoDatePattern   = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	longDatePattern  = regexp.MustCompile(`([A-Za-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`)

	// Day-first dotted dates are left to dotDatePattern; dateparse reads them month-first.
	dottedOnly = regexp.MustCompile(`^\s*\d{1,2}\.\d{1,2}\.\d{2,4}\s*$`)

	clockPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\b`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// ParseDate resolves free-form date text found on event pages.
//
// The whole string is first handed to a permissive parser. When that fails
// the text is searched for, in order: MM/DD/YYYY, DD.MM.YYYY, YYYY-MM-DD and
// "Month DD, YYYY". The first pattern that matches decides the result, which
// is midnight of that day in loc. A nil loc means UTC.
//
// A 12-hour clock such as "6pm" overrides the time of day of a full parse.
func ParseDate(text string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return time.Time{}, false
	}

	if !dottedOnly.MatchString(text) {
		if t, ok := fullParse(text, loc); ok {
			return withClock(t, text), true
		}
	}

	if m := slashDatePattern.FindStringSubmatch(text); m != nil {
		return civilDate(m[3], m[1], m[2], loc)
	}
	if m := dotDatePattern.FindStringSubmatch(text); m != nil {
		return civilDate(m[3], m[2], m[1], loc)
	}
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		return civilDate(m[1], m[2], m[3], loc)
	}
	if m := longDatePattern.FindStringSubmatch(text); m != nil {
		month, ok := monthNames[strings.ToLower(m[1])]
		if !ok {
			return time.Time{}, false
		}
		return civilDate(m[3], strconv.Itoa(int(month)), m[2], loc)
	}
	return time.Time{}, false
}

// fullParse wraps dateparse, which has panicked on odd input in the past.
func fullParse(text string, loc *time.Location) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	parsed, err := dateparse.ParseIn(text, loc)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// withClock applies the first am/pm time found in text to t. dateparse reads
// a bare "6pm" after a date as noon.
func withClock(t time.Time, text string) time.Time {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return t
	}
	hour, _ := strconv.Atoi(m[1])
	if hour < 1 || hour > 12 {
		return t
	}
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
		if minute > 59 {
			return t
		}
	}
	hour %= 12
	if strings.EqualFold(m[3], "p") {
		hour += 12
	}
	if t.Hour() == hour && t.Minute() == minute {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

// civilDate builds midnight of year-month-day, rejecting impossible dates.
func civilDate(year, month, day string, loc *time.Location) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
