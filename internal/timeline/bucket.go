package timeline

import (
	"fmt"
	"strings"
	"time"

	"peaktrail/pkg/contracts/domain"
)

// Granularity selects the time bucket facts are grouped into.
type Granularity string

const (
	GranularityDay        Granularity = "day"
	GranularityMonth      Granularity = "month"
	GranularityYear       Granularity = "year"
	GranularityYearSeason Granularity = "year-season"
)

// Granularities lists every supported granularity.
var Granularities = []Granularity{GranularityDay, GranularityMonth, GranularityYear, GranularityYearSeason}

// ParseGranularity converts a configuration string into a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityDay, GranularityMonth, GranularityYear, GranularityYearSeason:
		return g, nil
	case "season", "yearseason", "year_season":
		return GranularityYearSeason, nil
	default:
		return "", &ValidationError{
			Field:   "granularity",
			Message: "must be one of day, month, year, year-season",
			Value:   s,
		}
	}
}

// String returns the configuration name of the granularity
func (g Granularity) String() string {
	return string(g)
}

// DateBased reports whether buckets are derived from resolved calendar dates
// rather than from the recorded year and season.
func (g Granularity) DateBased() bool {
	return g == GranularityDay || g == GranularityMonth
}

// BucketKey identifies one time bucket. Only the fields that belong to the
// granularity are set; the rest stay zero so keys compare with ==.
type BucketKey struct {
	Year   int           `json:"year"`
	Season domain.Season `json:"season,omitempty"`
	Month  time.Month    `json:"month,omitempty"`
	Day    int           `json:"day,omitempty"`
}

// Less orders keys chronologically.
func (k BucketKey) Less(o BucketKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Season != o.Season {
		return k.Season < o.Season
	}
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	return k.Day < o.Day
}

// IsZero reports whether k is the zero key.
func (k BucketKey) IsZero() bool {
	return k == BucketKey{}
}

// String returns the canonical form of the key: 1953-05-29, 1953-05,
// 1953-S1 or 1953.
func (k BucketKey) String() string {
	switch {
	case k.Day > 0:
		return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
	case k.Month > 0:
		return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
	case k.Season > 0:
		return fmt.Sprintf("%04d-S%d", k.Year, int(k.Season))
	default:
		return fmt.Sprintf("%04d", k.Year)
	}
}

// SeasonLabel returns the display season for the bucket. Date-based keys use
// the climbing season the month falls in; year keys have no season.
func (k BucketKey) SeasonLabel() string {
	if k.Season.IsValid() {
		return k.Season.String()
	}
	if k.Month > 0 {
		return SeasonOfMonth(k.Month).String()
	}
	return ""
}

// SeasonOfMonth maps a calendar month to the climbing season it belongs to:
// Mar-May spring, Jun-Aug summer, Sep-Nov autumn, Dec-Feb winter.
func SeasonOfMonth(m time.Month) domain.Season {
	switch m {
	case time.March, time.April, time.May:
		return domain.SeasonSpring
	case time.June, time.July, time.August:
		return domain.SeasonSummer
	case time.September, time.October, time.November:
		return domain.SeasonAutumn
	case time.December, time.January, time.February:
		return domain.SeasonWinter
	default:
		return domain.SeasonUnknown
	}
}

// bucketStrategy is the per-granularity behaviour the rest of the pipeline
// is parameterised by.
type bucketStrategy interface {
	// key builds the bucket for a fact. date is zero for granularities that
	// are not date based.
	key(date time.Time, year int, season domain.Season) BucketKey
	// next returns the bucket immediately after k.
	next(k BucketKey) BucketKey
	// valid reports whether k is well formed for this granularity.
	valid(k BucketKey) bool
}

func strategyFor(g Granularity) (bucketStrategy, error) {
	switch g {
	case GranularityDay:
		return dayBuckets{}, nil
	case GranularityMonth:
		return monthBuckets{}, nil
	case GranularityYear:
		return yearBuckets{}, nil
	case GranularityYearSeason:
		return yearSeasonBuckets{}, nil
	default:
		return nil, &ValidationError{Field: "granularity", Message: "unsupported granularity", Value: string(g)}
	}
}

type dayBuckets struct{}

func (dayBuckets) key(date time.Time, _ int, _ domain.Season) BucketKey {
	return BucketKey{Year: date.Year(), Month: date.Month(), Day: date.Day()}
}

func (dayBuckets) next(k BucketKey) BucketKey {
	t := time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return BucketKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (dayBuckets) valid(k BucketKey) bool {
	if k.Season != 0 || k.Month < time.January || k.Month > time.December || k.Day < 1 {
		return false
	}
	return k.Day <= daysIn(k.Year, k.Month)
}

type monthBuckets struct{}

func (monthBuckets) key(date time.Time, _ int, _ domain.Season) BucketKey {
	return BucketKey{Year: date.Year(), Month: date.Month()}
}

func (monthBuckets) next(k BucketKey) BucketKey {
	if k.Month == time.December {
		return BucketKey{Year: k.Year + 1, Month: time.January}
	}
	return BucketKey{Year: k.Year, Month: k.Month + 1}
}

func (monthBuckets) valid(k BucketKey) bool {
	return k.Season == 0 && k.Day == 0 && k.Month >= time.January && k.Month <= time.December
}

type yearBuckets struct{}

func (yearBuckets) key(_ time.Time, year int, _ domain.Season) BucketKey {
	return BucketKey{Year: year}
}

func (yearBuckets) next(k BucketKey) BucketKey {
	return BucketKey{Year: k.Year + 1}
}

func (yearBuckets) valid(k BucketKey) bool {
	return k.Season == 0 && k.Month == 0 && k.Day == 0
}

type yearSeasonBuckets struct{}

func (yearSeasonBuckets) key(_ time.Time, year int, season domain.Season) BucketKey {
	return BucketKey{Year: year, Season: season}
}

func (yearSeasonBuckets) next(k BucketKey) BucketKey {
	if k.Season >= domain.SeasonWinter {
		return BucketKey{Year: k.Year + 1, Season: domain.SeasonSpring}
	}
	return BucketKey{Year: k.Year, Season: k.Season + 1}
}

func (yearSeasonBuckets) valid(k BucketKey) bool {
	return k.Season.IsValid() && k.Month == 0 && k.Day == 0
}

// daysIn returns the number of days in month m of year y.
func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
