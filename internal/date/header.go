package date

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/goodsign/monday"
)

const boundaryLayout = "2006/01/02"

var (
	headerWithYear = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日`)
	headerNoYear   = regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日`)
)

// ParseHeaderDate returns the day announced by a date header as labelled
// midnight. Headers without a year get the same rollback as Normalize: a day
// after today belongs to the previous year.
func ParseHeaderDate(header string, today time.Time) (time.Time, error) {
	text := Clean(header)
	midnight := clock{}
	switch {
	case text == relativeToday:
		return today, nil
	case text == relativeYesterday:
		return today.AddDate(0, 0, -1), nil
	}
	if m := headerWithYear.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if t, ok := instant(year, month, day, midnight); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("invalid date in header %q", header)
	}
	if m := headerNoYear.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		t, ok := instant(today.Year(), month, day, midnight)
		if ok && t.After(today) {
			t, ok = instant(today.Year()-1, month, day, midnight)
		}
		if ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("invalid date in header %q", header)
	}
	return time.Time{}, fmt.Errorf("unknown header date format %q", header)
}

// ParseBoundary parses a YYYY/MM/DD boundary date as labelled midnight.
func ParseBoundary(s string) (time.Time, error) {
	t, err := time.Parse(boundaryLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("boundary date %q must have the format YYYY/MM/DD: %w", s, err)
	}
	return t, nil
}

// Weekday returns the zh_TW name of t's weekday, for log lines.
func Weekday(t time.Time) string {
	return monday.Format(t, "Monday", monday.LocaleZhTW)
}
