package timeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"peaktrail/pkg/contracts/domain"
)

// MalformedPolicy decides what happens to a record that cannot be reconciled.
type MalformedPolicy string

const (
	// MalformedSkip drops the record and reports it in ReconcileResult.Rejected.
	MalformedSkip MalformedPolicy = "skip"
	// MalformedFail aborts the batch on the first malformed record.
	MalformedFail MalformedPolicy = "fail"
)

// ParseMalformedPolicy converts a configuration string into a policy.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch p := MalformedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case MalformedSkip, MalformedFail:
		return p, nil
	case "":
		return MalformedSkip, nil
	default:
		return "", &ValidationError{Field: "on_malformed", Message: "must be skip or fail", Value: s}
	}
}

// DropReason names a filter that removed a record from the fact population.
type DropReason string

const (
	DropMissingYear   DropReason = "missing_year"
	DropMissingSeason DropReason = "missing_season"
	DropNoDate        DropReason = "no_date"
	DropClaimed       DropReason = "claimed"
	DropDisputed      DropReason = "disputed"
	DropNoMembers     DropReason = "no_members"
)

// ReconcileOptions configures the fact reconciler.
type ReconcileOptions struct {
	Granularity       Granularity
	RequireUnclaimed  bool
	RequireUndisputed bool
	RequireMembers    bool
	OnMalformed       MalformedPolicy
}

// DefaultReconcileOptions drops claimed, disputed and memberless expeditions
// and skips malformed records.
func DefaultReconcileOptions() ReconcileOptions {
	return ReconcileOptions{
		Granularity:       GranularityYearSeason,
		RequireUnclaimed:  true,
		RequireUndisputed: true,
		RequireMembers:    true,
		OnMalformed:       MalformedSkip,
	}
}

// ReconcileResult is the output of Reconcile.
type ReconcileResult struct {
	Facts    []Fact
	Rejected []*MalformedRecordError
	Dropped  map[DropReason]int
}

// DroppedTotal returns the number of records removed by filters.
func (r ReconcileResult) DroppedTotal() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

var (
	errNotInteger = errors.New("not a non-negative integer")
	errNotBool    = errors.New("not a boolean")
	errBadSeason  = errors.New("not a season code 1-4")
)

// Reconcile turns raw expedition rows into facts. Records that fail a filter
// are counted in Dropped. Records with unparseable numeric or boolean cells
// are malformed: with MalformedSkip they are collected in Rejected, with
// MalformedFail the first one is returned as the error.
func Reconcile(records []domain.RawRecord, opts ReconcileOptions) (ReconcileResult, error) {
	strategy, err := strategyFor(opts.Granularity)
	if err != nil {
		return ReconcileResult{}, err
	}

	result := ReconcileResult{
		Facts:   make([]Fact, 0, len(records)),
		Dropped: make(map[DropReason]int),
	}

	for _, rec := range records {
		fact, reason, err := reconcileRecord(rec, strategy, opts)
		if err != nil {
			var mre *MalformedRecordError
			if !errors.As(err, &mre) {
				return ReconcileResult{}, err
			}
			if opts.OnMalformed == MalformedFail {
				return ReconcileResult{}, mre
			}
			result.Rejected = append(result.Rejected, mre)
			continue
		}
		if reason != "" {
			result.Dropped[reason]++
			continue
		}
		result.Facts = append(result.Facts, fact)
	}

	return result, nil
}

func reconcileRecord(rec domain.RawRecord, strategy bucketStrategy, opts ReconcileOptions) (Fact, DropReason, error) {
	malformed := func(field, value string, err error) error {
		return &MalformedRecordError{Line: rec.Line, ExpID: rec.ExpID, Field: field, Value: value, Err: err}
	}

	// Every granularity needs the year: it suffixes the fact ID and anchors
	// the century correction of date buckets.
	yearCell := strings.TrimSpace(rec.Year)
	if isMissing(yearCell) {
		return Fact{}, DropMissingYear, nil
	}
	year, err := parseCount(yearCell)
	if err != nil || year == 0 {
		return Fact{}, "", malformed("year", rec.Year, errNotInteger)
	}

	var season domain.Season
	if opts.Granularity == GranularityYearSeason {
		s, missing, err := parseSeason(rec.Season)
		if err != nil {
			return Fact{}, "", malformed("season", rec.Season, err)
		}
		if missing {
			return Fact{}, DropMissingSeason, nil
		}
		season = s
	}

	counts := []struct {
		name  string
		value string
	}{
		{"mdeaths", rec.MDeaths},
		{"hdeaths", rec.HDeaths},
		{"totmembers", rec.TotMembers},
		{"tothired", rec.TotHired},
		{"smtmembers", rec.SmtMembers},
		{"smthired", rec.SmtHired},
	}
	parsed := make([]int, len(counts))
	for i, c := range counts {
		n, err := parseCount(c.value)
		if err != nil {
			return Fact{}, "", malformed(c.name, c.value, err)
		}
		parsed[i] = n
	}

	success := false
	for i, cell := range rec.Successes() {
		b, err := parseBool(cell)
		if err != nil {
			return Fact{}, "", malformed(fmt.Sprintf("success%d", i+1), cell, err)
		}
		success = success || b
	}

	claimed, err := parseBool(rec.Claimed)
	if err != nil {
		return Fact{}, "", malformed("claimed", rec.Claimed, err)
	}
	disputed, err := parseBool(rec.Disputed)
	if err != nil {
		return Fact{}, "", malformed("disputed", rec.Disputed, err)
	}

	if opts.RequireUnclaimed && claimed {
		return Fact{}, DropClaimed, nil
	}
	if opts.RequireUndisputed && disputed {
		return Fact{}, DropDisputed, nil
	}

	fact := Fact{
		ExpID:    fmt.Sprintf("%s-%d", strings.TrimSpace(rec.ExpID), year),
		PeakID:   strings.TrimSpace(rec.PeakID),
		Deaths:   parsed[0] + parsed[1],
		Members:  parsed[2] + parsed[3],
		Summits:  parsed[4] + parsed[5],
		Success:  success,
		Occurred: true,
	}

	if opts.Granularity.DateBased() {
		date, ok := ResolveDate(rec.SmtDate, rec.BCDate, rec.TermDate, year)
		if !ok {
			return Fact{}, DropNoDate, nil
		}
		fact.Date = date
	}

	if opts.RequireMembers && fact.Members <= 0 {
		return Fact{}, DropNoMembers, nil
	}

	fact.Bucket = strategy.key(fact.Date, year, season)
	return fact, "", nil
}

func isMissing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "na")
}

// parseCount reads a non-negative whole number. Empty cells count as zero.
// Float spellings of whole numbers ("3.0") are accepted since spreadsheet
// exports write integer columns that way once a blank is present.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, errNotInteger
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, errNotInteger
	}
	return int(f), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan":
		return false, nil
	case "true", "t", "yes", "y", "1", "1.0":
		return true, nil
	case "false", "f", "no", "n", "0", "0.0":
		return false, nil
	default:
		return false, errNotBool
	}
}

// parseSeason accepts season codes 1-4 or their names. 0 and blank are
// missing.
func parseSeason(s string) (season domain.Season, missing bool, err error) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return domain.SeasonUnknown, true, nil
	}

	for _, candidate := range domain.Seasons {
		if strings.EqualFold(s, candidate.String()) {
			return candidate, false, nil
		}
	}
	if strings.EqualFold(s, "fall") {
		return domain.SeasonAutumn, false, nil
	}

	n, err := parseCount(s)
	if err != nil {
		return domain.SeasonUnknown, false, errBadSeason
	}
	if n == 0 {
		return domain.SeasonUnknown, true, nil
	}
	if !domain.Season(n).IsValid() {
		return domain.SeasonUnknown, false, errBadSeason
	}
	return domain.Season(n), false, nil
}
