package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peaktrail/internal/shared/testutil"
)

func TestFileValidator_ValidateTableFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := testutil.WriteExpeditionCSV(t, dir, "exped.csv", testutil.EverestFixture())
	xlsxPath := filepath.Join(dir, "peaks.xlsx")
	require.NoError(t, os.WriteFile(xlsxPath, []byte("PK"), 0644))
	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0644))
	lockPath := filepath.Join(dir, "~$exped.xlsx")
	require.NoError(t, os.WriteFile(lockPath, []byte("x"), 0644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
		errIs   error
	}{
		{name: "csv", path: csvPath},
		{name: "xlsx", path: xlsxPath},
		{name: "missing file", path: filepath.Join(dir, "nope.csv"), wantErr: true, errIs: os.ErrNotExist},
		{name: "unsupported extension", path: txtPath, wantErr: true, errIs: ErrUnsupportedFormat},
		{name: "excel lock file", path: lockPath, wantErr: true},
		{name: "directory", path: func() string {
			p := filepath.Join(dir, "sub.csv")
			require.NoError(t, os.Mkdir(p, 0755))
			return p
		}(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			v := NewFileValidator(logger)

			err := v.ValidateTableFile(tt.path)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.errIs != nil {
				assert.True(t, errors.Is(err, tt.errIs), "got %v", err)
			}
		})
	}
}

func TestFileValidator_ValidateInputs(t *testing.T) {
	dir := t.TempDir()
	logger, logs := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)
	exped := testutil.WriteExpeditionCSV(t, dir, "exped.csv", testutil.EverestFixture())
	peaks := testutil.WritePeakCSV(t, dir, "peaks.csv", testutil.EverestPeaks())

	require.NoError(t, v.ValidateInputs(exped, peaks))
	assert.True(t, logs.ContainsMessage("Input tables validated"))

	err := v.ValidateInputs(filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.csv")
	assert.Contains(t, err.Error(), "b.csv")
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)
	dir := filepath.Join(t.TempDir(), "out", "nested")

	require.NoError(t, v.ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "write test file must be removed")

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.Error(t, v.ValidateOutputDirectory(filepath.Join(file, "out")))
}
