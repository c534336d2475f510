package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"peaktrail/pkg/contracts/domain"
)

// ExpeditionColumns is the header written by WriteExpeditionCSV. It is a
// subset of the Himalayan Database export; loaders ignore the rest.
var ExpeditionColumns = []string{
	"expid", "peakid", "year", "season",
	"success1", "success2", "success3", "success4",
	"claimed", "disputed",
	"bcdate", "smtdate", "termdate",
	"totmembers", "tothired", "smtmembers", "smthired",
	"mdeaths", "hdeaths",
}

// PeakColumns is the header written by WritePeakCSV.
var PeakColumns = []string{"peakid", "pkname"}

// Expedition is a compact description of one expedition row.
type Expedition struct {
	ExpID   string
	PeakID  string
	Year    int
	Season  domain.Season
	SmtDate string
	Members int
	Hired   int
	Summits int
	Deaths  int
	Success bool
}

// Row renders e in ExpeditionColumns order.
func (e Expedition) Row() []string {
	success := "FALSE"
	if e.Success {
		success = "TRUE"
	}
	return []string{
		e.ExpID, e.PeakID, strconv.Itoa(e.Year), strconv.Itoa(int(e.Season)),
		success, "FALSE", "FALSE", "FALSE",
		"FALSE", "FALSE",
		"", e.SmtDate, "",
		strconv.Itoa(e.Members), strconv.Itoa(e.Hired), strconv.Itoa(e.Summits), "0",
		strconv.Itoa(e.Deaths), "0",
	}
}

// Record renders e as the raw record a loader would produce from Row.
func (e Expedition) Record(line int) domain.RawRecord {
	row := e.Row()
	return domain.RawRecord{
		Line:       line,
		ExpID:      row[0],
		PeakID:     row[1],
		Year:       row[2],
		Season:     row[3],
		Success1:   row[4],
		Success2:   row[5],
		Success3:   row[6],
		Success4:   row[7],
		Claimed:    row[8],
		Disputed:   row[9],
		BCDate:     row[10],
		SmtDate:    row[11],
		TermDate:   row[12],
		TotMembers: row[13],
		TotHired:   row[14],
		SmtMembers: row[15],
		SmtHired:   row[16],
		MDeaths:    row[17],
		HDeaths:    row[18],
	}
}

// EverestFixture is the three-expedition Everest history used across
// packages: a safe season in 2000, nothing in 2001, one death in 2002.
func EverestFixture() []Expedition {
	return []Expedition{
		{ExpID: "EVER00101", PeakID: "EVER", Year: 2000, Season: domain.SeasonSpring, SmtDate: "2000-05-20", Members: 8, Summits: 4, Success: true},
		{ExpID: "EVER02101", PeakID: "EVER", Year: 2002, Season: domain.SeasonSpring, SmtDate: "2002-05-16", Members: 6, Summits: 2, Deaths: 1, Success: true},
		{ExpID: "AMAD02101", PeakID: "AMAD", Year: 2002, Season: domain.SeasonAutumn, SmtDate: "2002-10-03", Members: 4, Deaths: 0},
	}
}

// EverestPeaks is the peak table matching EverestFixture.
func EverestPeaks() []domain.Peak {
	return []domain.Peak{
		{ID: "EVER", Name: "Everest"},
		{ID: "AMAD", Name: "Ama Dablam"},
	}
}

// WriteExpeditionCSV writes exps to dir/name and returns the path.
func WriteExpeditionCSV(t *testing.T, dir, name string, exps []Expedition) string {
	t.Helper()

	rows := make([][]string, 0, len(exps))
	for _, e := range exps {
		rows = append(rows, e.Row())
	}
	return WriteCSV(t, filepath.Join(dir, name), ExpeditionColumns, rows)
}

// WritePeakCSV writes peaks to dir/name and returns the path.
func WritePeakCSV(t *testing.T, dir, name string, peaks []domain.Peak) string {
	t.Helper()

	rows := make([][]string, 0, len(peaks))
	for _, p := range peaks {
		rows = append(rows, []string{p.ID, p.Name})
	}
	return WriteCSV(t, filepath.Join(dir, name), PeakColumns, rows)
}

// WriteCSV writes a header and rows to path, failing the test on error.
func WriteCSV(t *testing.T, path string, header []string, rows [][]string) string {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return path
}
