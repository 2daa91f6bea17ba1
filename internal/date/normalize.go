// Package date turns the human readable dates and times of the activity feed
// into canonical instants.
//
// Instants produced here are labelled, not converted: the wall clock shown on
// the page is stored in a time.Time with location UTC and rendered with a
// literal Z. Callers must not treat them as real UTC.
package date

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Period is the day segment that precedes a 12-hour clock time.
type Period string

const (
	PeriodEarlyMorning Period = "凌晨"
	PeriodDawn         Period = "清晨"
	PeriodMorning      Period = "上午"
	PeriodAfternoon    Period = "下午"
	PeriodEvening      Period = "晚上"
)

const (
	relativeToday     = "今天"
	relativeYesterday = "昨天"
)

const periodPattern = `(凌晨|清晨|上午|下午|晚上)(\d{1,2}):(\d{2})`

// To24Hour converts a 12-hour clock value into a 24-hour one. Early-morning
// and dawn share the morning rule (12 is midnight).
func (p Period) To24Hour(hour int) int {
	switch p {
	case PeriodAfternoon, PeriodEvening:
		if hour != 12 {
			return hour + 12
		}
	case PeriodEarlyMorning, PeriodDawn, PeriodMorning:
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// clock is the captured time-of-day part of a label.
type clock struct {
	period Period
	hour   int
	minute int
}

func parseClock(period, hour, minute string) (clock, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return clock{}, false
	}
	m, err := strconv.Atoi(minute)
	if err != nil {
		return clock{}, false
	}
	c := clock{period: Period(period), hour: Period(period).To24Hour(h), minute: m}
	if c.hour < 0 || c.hour > 23 || c.minute < 0 || c.minute > 59 {
		return clock{}, false
	}
	return c, true
}

// matcher recognizes one shape of composite text. build receives the
// submatches of re and returns false if they do not form a valid instant.
type matcher struct {
	name  string
	re    *regexp.Regexp
	build func(m []string, today time.Time) (time.Time, bool)
}

// matchers are tried in order, the first match wins.
var matchers = []matcher{
	{
		name: "absolute",
		re:   regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日\s+` + periodPattern),
		build: func(m []string, _ time.Time) (time.Time, bool) {
			c, ok := parseClock(m[4], m[5], m[6])
			if !ok {
				return time.Time{}, false
			}
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			return instant(year, month, day, c)
		},
	},
	{
		name: "absolute-no-year",
		re:   regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日\s+` + periodPattern),
		build: func(m []string, today time.Time) (time.Time, bool) {
			c, ok := parseClock(m[3], m[4], m[5])
			if !ok {
				return time.Time{}, false
			}
			month, _ := strconv.Atoi(m[1])
			day, _ := strconv.Atoi(m[2])
			t, ok := instant(today.Year(), month, day, c)
			if !ok {
				return time.Time{}, false
			}
			if t.After(today) {
				return instant(today.Year()-1, month, day, c)
			}
			return t, true
		},
	},
	{
		name: "relative",
		re:   regexp.MustCompile(`^(今天|昨天)\s+` + periodPattern),
		build: func(m []string, today time.Time) (time.Time, bool) {
			c, ok := parseClock(m[2], m[3], m[4])
			if !ok {
				return time.Time{}, false
			}
			base := today
			if m[1] == relativeYesterday {
				base = today.AddDate(0, 0, -1)
			}
			return instant(base.Year(), int(base.Month()), base.Day(), c)
		},
	},
}

// instant builds the labelled instant and rejects dates that time.Date
// would silently normalize (e.g. February 30th).
func instant(year, month, day int, c clock) (time.Time, bool) {
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, c.hour, c.minute, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// Clean applies NFKC normalization (full-width digits and colons, narrow
// no-break spaces) and trims the result.
func Clean(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Normalize converts "<date context> <time label>" into a labelled instant.
// today is the reference day at midnight (see Today). The second return value
// is false if the text has none of the known shapes.
func Normalize(composite string, today time.Time) (time.Time, bool) {
	text := Clean(composite)
	for _, mt := range matchers {
		m := mt.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return mt.build(m, today)
	}
	return time.Time{}, false
}

// FormatInstant renders the wall clock of t followed by a literal Z.
func FormatInstant(t time.Time) string {
	return t.Format("2006-01-02T15:04:05") + "Z"
}

// Today returns the wall date of now as labelled midnight.
func Today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
