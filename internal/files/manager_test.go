package files

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peaktrail/internal/shared/testutil"
)

func TestWriteAtomic(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	m := NewManager(logger)
	dir := filepath.Join(t.TempDir(), "output")
	path := filepath.Join(dir, "timeline.csv")

	err := m.WriteAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "peak_id,bucket\n")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "peak_id,bucket\n", string(data))
	assert.True(t, m.FileExists(path))
}

func TestWriteAtomic_FailureKeepsOldFile(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	m := NewManager(logger)
	dir := t.TempDir()
	path := filepath.Join(dir, "timeline.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	boom := errors.New("encode failed")
	err := m.WriteAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestFileExists(t *testing.T) {
	m := NewManager(nil)
	dir := t.TempDir()

	assert.False(t, m.FileExists(dir))
	assert.False(t, m.FileExists(filepath.Join(dir, "none")))
}
