package dataprocessing

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"peaktrail/internal/shared/testutil"
	"peaktrail/pkg/contracts/domain"
)

// writeWorkbook saves rows to a one-sheet workbook.
func writeWorkbook(t *testing.T, path, sheet string, rows [][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &rows[i]))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestReadExpeditionsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exped.xlsx")
	writeWorkbook(t, path, "exped", [][]interface{}{
		{"expid", "peakid", "year", "season", "smtdate", "totmembers", "mdeaths", "success1"},
		{"EVER00101", "EVER", 2000, 1, time.Date(2000, 5, 20, 0, 0, 0, 0, time.UTC), 8, 0, true},
		{"EVER02101", "EVER", 2002, 1, "2002-05-16", 6, 1, false},
	})

	records, err := ReadExpeditionsXLSX(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, "EVER00101", records[0].ExpID)
	assert.Equal(t, "2000", records[0].Year)
	assert.Equal(t, "2000-05-20", records[0].SmtDate)
	assert.Equal(t, "8", records[0].TotMembers)
	assert.Equal(t, "1", records[0].Success1)

	assert.Equal(t, "2002-05-16", records[1].SmtDate)
	assert.Equal(t, "1", records[1].MDeaths)
	assert.Equal(t, "0", records[1].Success1)
}

func TestReadExpeditionsXLSX_PicksSheetByStem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exped.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("exped")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"unrelated"}))
	require.NoError(t, f.SetSheetRow("exped", "A1", &[]interface{}{"expid", "peakid", "year"}))
	require.NoError(t, f.SetSheetRow("exped", "A2", &[]interface{}{"X1", "EVER", 1999}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := ReadExpeditionsXLSX(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1999", records[0].Year)
}

func TestReadPeaksXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peaks.xlsx")
	writeWorkbook(t, path, "peaks", [][]interface{}{
		{"PEAKID", "PKNAME"},
		{"EVER", "Everest"},
		{"AMAD", "Ama Dablam"},
	})

	peaks, err := ReadPeaksXLSX(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Peak{{ID: "EVER", Name: "Everest"}, {ID: "AMAD", Name: "Ama Dablam"}}, peaks)
}

func TestLoader_LoadExpeditions_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exped.xlsx")
	rows := [][]interface{}{{"expid", "peakid", "year"}}
	for _, e := range testutil.EverestFixture() {
		rows = append(rows, []interface{}{e.ExpID, e.PeakID, e.Year})
	}
	writeWorkbook(t, path, "data", rows)
	logger, _ := testutil.NewTestLogger(t)

	records, err := NewLoader(logger).LoadExpeditions(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestExcelDate(t *testing.T) {
	assert.Equal(t, "2000-05-20", excelDate("smtdate", "36666"))
	assert.Equal(t, "36666", excelDate("year", "36666"))
	assert.Equal(t, "2000-05-20", excelDate("bcdate", "2000-05-20"))
}
