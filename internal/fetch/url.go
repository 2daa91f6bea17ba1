package fetch

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// HistoryURL returns the history page URL. If startDate (YYYY/MM/DD) is set,
// the feed starts at the end of that day in loc: the max parameter holds the
// last microsecond timestamp of the day.
func HistoryURL(base, startDate string, loc *time.Location) (string, error) {
	if startDate == "" {
		return base, nil
	}
	d, err := time.ParseInLocation("2006/01/02", startDate, loc)
	if err != nil {
		return "", fmt.Errorf("start date %q must have the format YYYY/MM/DD: %w", startDate, err)
	}
	endOfDay := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999000000, loc)

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid history url %s: %w", base, err)
	}
	q := u.Query()
	q.Set("max", strconv.FormatInt(endOfDay.UnixMicro(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
