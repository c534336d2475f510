package timeline

import (
	"strings"
	"time"
)

// dateLayouts are tried in order. The two-digit year layouts are what the
// century correction exists for: Go maps 69-99 to 19xx and 00-68 to 20xx.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"01/02/2006",
	"01/02/06",
	"02-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// parseDate parses s with the known layouts. Anything unparseable is reported
// as missing rather than as an error.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ResolveDate picks the expedition date from its summit, base-camp and
// termination dates, in that priority, and applies CorrectCentury against the
// recorded year. ok is false when none of the three parse.
func ResolveDate(summit, baseCamp, termination string, year int) (date time.Time, ok bool) {
	for _, s := range []string{summit, baseCamp, termination} {
		if d, found := parseDate(s); found {
			return CorrectCentury(d, year), true
		}
	}
	return time.Time{}, false
}

// CorrectCentury subtracts 100 years from date when its year is more than one
// year after the recorded expedition year. Dates written with two-digit years
// come back a century late; this is a heuristic and will not catch every such
// date. A day that does not exist in the corrected year (29 February) is
// clamped to the end of the month.
func CorrectCentury(date time.Time, year int) time.Time {
	if date.Year()-year <= 1 {
		return date
	}

	y := date.Year() - 100
	d := date.Day()
	if last := daysIn(y, date.Month()); d > last {
		d = last
	}
	return time.Date(y, date.Month(), d, 0, 0, 0, 0, time.UTC)
}
