package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"peaktrail/internal/config"
	"peaktrail/internal/shared/testutil"
	"peaktrail/internal/timeline"
	apiv1 "peaktrail/pkg/contracts/api/v1"
	"peaktrail/pkg/contracts/domain"
)

func everestResult(t *testing.T) (*timeline.Result, domain.PeakLookup) {
	t.Helper()

	cfg := timeline.DefaultConfig()
	cfg.Granularity = timeline.GranularityYear
	cfg.Selector = timeline.Fixed{IDs: []string{"EVER", "AMAD"}}

	p, err := timeline.NewPipeline(cfg, nil)
	require.NoError(t, err)

	var records []domain.RawRecord
	for i, e := range testutil.EverestFixture() {
		records = append(records, e.Record(i+2))
	}

	res, err := p.Run(context.Background(), records)
	require.NoError(t, err)

	lookup, _ := domain.NewPeakLookup(testutil.EverestPeaks())
	return res, lookup
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input   string
		want    []Format
		wantErr bool
	}{
		{"", []Format{FormatCSV}, false},
		{"csv", []Format{FormatCSV}, false},
		{"CSV, json ,xlsx", []Format{FormatCSV, FormatJSON, FormatXLSX}, false},
		{"json,json", []Format{FormatJSON}, false},
		{"csv,,", []Format{FormatCSV}, false},
		{"parquet", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormats(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteTimelineCSV(t *testing.T) {
	res, lookup := everestResult(t)
	entries := NameEntries(res.Entries(), lookup)

	var buf bytes.Buffer
	require.NoError(t, WriteTimelineCSV(&buf, entries, CSVOptions{BOMPrefix: true}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, len(entries)+1)
	assert.Equal(t, TimelineHeaders, rows[0])

	first := rows[1]
	assert.Equal(t, "EVER", first[0])
	assert.Equal(t, "Everest", first[1])
	assert.Equal(t, "0", first[2])
	assert.Equal(t, "2000", first[3])
	assert.Equal(t, "2000", first[4])
	assert.Equal(t, "true", first[7], "a season without deaths is dashed")
}

func TestWriteTimelineCSV_NoBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTimelineCSV(&buf, nil, CSVOptions{}))
	assert.Equal(t, strings.Join(TimelineHeaders, ",")+"\n", buf.String())
}

func TestWritePeaksCSV(t *testing.T) {
	lookup, _ := domain.NewPeakLookup(testutil.EverestPeaks())

	var buf bytes.Buffer
	require.NoError(t, WritePeaksCSV(&buf, lookup, CSVOptions{}))

	assert.Equal(t, [][]string{
		{"peak_id", "peak_name"},
		{"AMAD", "Ama Dablam"},
		{"EVER", "Everest"},
	}, readCSV(t, buf.Bytes()))
}

func TestWriteTimelineJSON(t *testing.T) {
	t.Run("empty slices encode as arrays", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteTimelineJSON(&buf, apiv1.TimelineResponse{}))
		assert.Contains(t, buf.String(), `"entries": []`)
		assert.Contains(t, buf.String(), `"peaks": []`)
	})

	t.Run("round trip", func(t *testing.T) {
		res, lookup := everestResult(t)
		resp := apiv1.TimelineResponse{
			Entries: NameEntries(res.Entries(), lookup),
			Peaks:   lookup,
			Summary: res.TimelineSummary("run-7"),
		}

		var buf bytes.Buffer
		require.NoError(t, WriteTimelineJSON(&buf, resp))

		var decoded apiv1.TimelineResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "run-7", decoded.Summary.RunID)
		assert.Equal(t, resp.Entries, decoded.Entries)
	})
}

func TestGroupByPeak(t *testing.T) {
	entries := []domain.TimelineEntry{
		{PeakID: "LHOT", BucketIndex: 0},
		{PeakID: "EVER", BucketIndex: 0},
		{PeakID: "LHOT", BucketIndex: 1},
	}

	order, groups := GroupByPeak(entries)
	assert.Equal(t, []string{"LHOT", "EVER"}, order)
	assert.Len(t, groups["LHOT"], 2)
	assert.Len(t, groups["EVER"], 1)
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"EVER", "EVER"},
		{"", "Combined"},
		{"  ", "Combined"},
		{"A/B:C", "A_B_C"},
		{"'QUOTED'", "QUOTED"},
		{strings.Repeat("X", 40), strings.Repeat("X", 31)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SheetName(tt.input), "input %q", tt.input)
	}
}

func TestWriteTimelineXLSX(t *testing.T) {
	res, lookup := everestResult(t)
	entries := NameEntries(res.Entries(), lookup)

	var buf bytes.Buffer
	require.NoError(t, WriteTimelineXLSX(&buf, entries, res.TimelineSummary("run-1")))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "EVER", "AMAD"}, f.GetSheetList())

	rows, err := f.GetRows("EVER")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, TimelineHeaders, rows[0])
	assert.Equal(t, "EVER", rows[1][0])
	assert.Equal(t, "Everest", rows[1][1])

	runID, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
}

func TestWriteSummaryReport(t *testing.T) {
	res, lookup := everestResult(t)
	generated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryReport(&buf, res, lookup, "run-9", generated))

	out := buf.String()
	assert.Contains(t, out, "Generated: 2024-03-01 12:00:00")
	assert.Contains(t, out, "Run ID: run-9")
	assert.Contains(t, out, "Records Read: 3")
	assert.Contains(t, out, "Granularity: year")
	assert.Contains(t, out, "Peaks: 2 (EVER, AMAD)")
	assert.Contains(t, out, "Everest")
	assert.Contains(t, out, "STAGES")
	assert.NotContains(t, out, "REJECTED RECORDS")

	assert.Error(t, WriteSummaryReport(&buf, nil, lookup, "", generated))
}

func TestCalculatePeakStats(t *testing.T) {
	res, lookup := everestResult(t)

	stats := CalculatePeakStats(res, lookup)
	require.Len(t, stats, 2)

	ever := stats[0]
	assert.Equal(t, "EVER", ever.PeakID)
	assert.Equal(t, "Everest", ever.Name)
	assert.Equal(t, 2, ever.Buckets)
	assert.Equal(t, 2, ever.Expeditions)
	assert.Equal(t, 1, ever.Deaths)
	assert.Equal(t, "2002", ever.MaxBucket)
}

func newTestExporter(t *testing.T) (*Exporter, *config.Paths) {
	t.Helper()

	paths, err := config.PathsConfig{
		BaseDir:         t.TempDir(),
		InputDir:        "data",
		OutputDir:       "output",
		LogsDir:         "logs",
		ExpeditionsFile: "exped.csv",
		PeaksFile:       "peaks.csv",
	}.Resolve()
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	return NewExporter(paths, logger), paths
}

func TestExporter_Export(t *testing.T) {
	res, lookup := everestResult(t)
	exp, paths := newTestExporter(t)

	written, err := exp.Export(context.Background(), res, lookup, Options{
		Formats: []Format{FormatCSV, FormatJSON, FormatXLSX},
		PerPeak: true,
		RunID:   "run-1",
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		paths.PeakLookupCSV,
		paths.SummaryReport,
		paths.TimelineCSV,
		paths.TimelineJSON,
		paths.TimelineXLSX,
		paths.PeakTimelineCSV("EVER"),
		paths.PeakTimelineCSV("AMAD"),
	}, written)

	for _, p := range written {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Greater(t, info.Size(), int64(0), p)
	}

	leftovers, err := filepath.Glob(filepath.Join(paths.OutputDir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	data, err := os.ReadFile(paths.PeakTimelineCSV("AMAD"))
	require.NoError(t, err)
	rows := readCSV(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, "AMAD", rows[1][0])
}

func TestExporter_Export_DefaultsToCSV(t *testing.T) {
	res, lookup := everestResult(t)
	exp, paths := newTestExporter(t)

	written, err := exp.Export(context.Background(), res, lookup, Options{})
	require.NoError(t, err)
	assert.Len(t, written, 3)
	assert.FileExists(t, paths.TimelineCSV)
	assert.NoFileExists(t, paths.TimelineJSON)
}

func TestExporter_Export_Errors(t *testing.T) {
	exp, _ := newTestExporter(t)

	_, err := exp.Export(context.Background(), nil, nil, Options{})
	assert.Error(t, err)

	res, lookup := everestResult(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exp.Export(ctx, res, lookup, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
