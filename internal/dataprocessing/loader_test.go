package dataprocessing

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "peaktrail/internal/errors"
	"peaktrail/internal/shared/testutil"
	"peaktrail/pkg/contracts/domain"
)

func TestReadExpeditionsCSV(t *testing.T) {
	input := "\ufeffEXPID,PeakID, Year ,season,smtdate,totmembers,mdeaths,notes\n" +
		"EVER00101,ever,2000,1,2000-05-20,8,0,first\n" +
		",,,,,,,\n" +
		"\"EVER02101\",EVER,2002,1,2002-05-16,6,1,\"multi\nline\"\n" +
		"AMAD02101,AMAD,2002,3\n"

	records, err := ReadExpeditionsCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, domain.RawRecord{
		Line:       2,
		ExpID:      "EVER00101",
		PeakID:     "EVER",
		Year:       "2000",
		Season:     "1",
		SmtDate:    "2000-05-20",
		TotMembers: "8",
		MDeaths:    "0",
	}, records[0])

	assert.Equal(t, 4, records[1].Line)
	assert.Equal(t, "1", records[1].MDeaths)

	// Short rows read missing cells as empty.
	assert.Equal(t, 6, records[2].Line)
	assert.Equal(t, "3", records[2].Season)
	assert.Empty(t, records[2].TotMembers)
}

func TestReadExpeditionsCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "empty"},
		{name: "missing required columns", input: "expid,season\nX,1\n", wantErr: "missing columns: peakid, year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadExpeditionsCSV(context.Background(), strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadExpeditionsCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadExpeditionsCSV(ctx, strings.NewReader("expid,peakid,year\nA,EVER,2000\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadPeaksCSV(t *testing.T) {
	input := "peakid,pkname,heightm\nEVER,Everest,8849\n,Nameless,1\nama1,Ama Dablam,6814\n"

	peaks, err := ReadPeaksCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []domain.Peak{
		{ID: "EVER", Name: "Everest"},
		{ID: "AMA1", Name: "Ama Dablam"},
	}, peaks)
}

func TestLoader_LoadPeaks_Dedup(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WritePeakCSV(t, dir, "peaks.csv", []domain.Peak{
		{ID: "EVER", Name: "Everest"},
		{ID: "AMAD", Name: "Ama Dablam"},
		{ID: "EVER", Name: "Sagarmatha"},
	})
	logger, logs := testutil.NewTestLogger(t)

	lookup, err := NewLoader(logger).LoadPeaks(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.PeakLookup{
		{ID: "AMAD", Name: "Ama Dablam"},
		{ID: "EVER", Name: "Everest"},
	}, lookup)
	assert.True(t, logs.ContainsMessage("keeping the first"))
}

func TestLoader_LoadExpeditions_CSV(t *testing.T) {
	dir := t.TempDir()
	fixture := testutil.EverestFixture()
	path := testutil.WriteExpeditionCSV(t, dir, "exped.csv", fixture)
	logger, _ := testutil.NewTestLogger(t)

	records, err := NewLoader(logger).LoadExpeditions(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, len(fixture))
	for i, e := range fixture {
		assert.Equal(t, e.Record(i+2), records[i])
	}
}

func TestLoader_ErrorClassification(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	loader := NewLoader(logger)

	_, err := loader.LoadExpeditions(context.Background(), filepath.Join(dir, "missing.csv"))
	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeStorage, appErr.Type)

	bad := testutil.WriteCSV(t, filepath.Join(dir, "bad.csv"), []string{"peakid"}, [][]string{{"EVER"}})
	_, err = loader.LoadPeaks(context.Background(), bad)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeParsing, appErr.Type)
	assert.Contains(t, err.Error(), "pkname")
}
