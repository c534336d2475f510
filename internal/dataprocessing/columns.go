package dataprocessing

import (
	"fmt"
	"sort"
	"strings"

	"peaktrail/pkg/contracts/domain"
)

// columnIndex maps lower-cased header names to their position.
type columnIndex map[string]int

func newColumnIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if name == "" {
			continue
		}
		// First occurrence wins for duplicated headers.
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	return idx
}

// missing returns the required columns absent from the header, sorted.
func (c columnIndex) missing(required ...string) []string {
	var out []string
	for _, name := range required {
		if _, ok := c[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// get returns the trimmed cell for name, or "" when the column is absent or
// the row is short.
func (c columnIndex) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Expedition table columns. Only the required ones must be present; the
// rest read as empty when missing.
var (
	expeditionRequired = []string{"expid", "peakid", "year"}

	expeditionFields = map[string]func(*domain.RawRecord, string){
		"expid":      func(r *domain.RawRecord, v string) { r.ExpID = v },
		"peakid":     func(r *domain.RawRecord, v string) { r.PeakID = strings.ToUpper(v) },
		"year":       func(r *domain.RawRecord, v string) { r.Year = v },
		"season":     func(r *domain.RawRecord, v string) { r.Season = v },
		"success1":   func(r *domain.RawRecord, v string) { r.Success1 = v },
		"success2":   func(r *domain.RawRecord, v string) { r.Success2 = v },
		"success3":   func(r *domain.RawRecord, v string) { r.Success3 = v },
		"success4":   func(r *domain.RawRecord, v string) { r.Success4 = v },
		"claimed":    func(r *domain.RawRecord, v string) { r.Claimed = v },
		"disputed":   func(r *domain.RawRecord, v string) { r.Disputed = v },
		"bcdate":     func(r *domain.RawRecord, v string) { r.BCDate = v },
		"smtdate":    func(r *domain.RawRecord, v string) { r.SmtDate = v },
		"termdate":   func(r *domain.RawRecord, v string) { r.TermDate = v },
		"totmembers": func(r *domain.RawRecord, v string) { r.TotMembers = v },
		"tothired":   func(r *domain.RawRecord, v string) { r.TotHired = v },
		"smtmembers": func(r *domain.RawRecord, v string) { r.SmtMembers = v },
		"smthired":   func(r *domain.RawRecord, v string) { r.SmtHired = v },
		"mdeaths":    func(r *domain.RawRecord, v string) { r.MDeaths = v },
		"hdeaths":    func(r *domain.RawRecord, v string) { r.HDeaths = v },
	}

	// dateColumns hold spreadsheet dates that may arrive as serial numbers.
	dateColumns = map[string]bool{"bcdate": true, "smtdate": true, "termdate": true}

	peakRequired = []string{"peakid", "pkname"}
)

// expeditionMapper converts rows of one table into raw records.
type expeditionMapper struct {
	cols    columnIndex
	convert func(column, value string) string
}

func newExpeditionMapper(header []string) (*expeditionMapper, error) {
	cols := newColumnIndex(header)
	if missing := cols.missing(expeditionRequired...); len(missing) > 0 {
		return nil, fmt.Errorf("expedition table is missing columns: %s", strings.Join(missing, ", "))
	}
	return &expeditionMapper{cols: cols}, nil
}

func (m *expeditionMapper) record(row []string, line int) domain.RawRecord {
	rec := domain.RawRecord{Line: line}
	for name, set := range expeditionFields {
		v := m.cols.get(row, name)
		if m.convert != nil && v != "" {
			v = m.convert(name, v)
		}
		set(&rec, v)
	}
	return rec
}

type peakMapper struct {
	cols columnIndex
}

func newPeakMapper(header []string) (*peakMapper, error) {
	cols := newColumnIndex(header)
	if missing := cols.missing(peakRequired...); len(missing) > 0 {
		return nil, fmt.Errorf("peak table is missing columns: %s", strings.Join(missing, ", "))
	}
	return &peakMapper{cols: cols}, nil
}

func (m *peakMapper) peak(row []string) domain.Peak {
	return domain.Peak{
		ID:   strings.ToUpper(m.cols.get(row, "peakid")),
		Name: m.cols.get(row, "pkname"),
	}
}
