package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
		assert.Equal(t, 4, handler.Count())
	})

	t.Run("derived loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "loader")).Info("loaded")

		AssertLogContains(t, handler, slog.LevelInfo, "loaded")
		AssertLogAttr(t, handler, "component", "loader")
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("one")
		handler.Clear()
		assert.Zero(t, handler.Count())
		AssertNoErrors(t, handler)
	})
}

func TestWriteExpeditionCSV(t *testing.T) {
	dir := t.TempDir()

	path := WriteExpeditionCSV(t, dir, "exped.csv", EverestFixture())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "expid,peakid,year,season")
	assert.Contains(t, string(data), "EVER00101,EVER,2000,1,TRUE")
}

func TestExpeditionRecord(t *testing.T) {
	e := EverestFixture()[1]

	rec := e.Record(3)

	assert.Equal(t, 3, rec.Line)
	assert.Equal(t, "EVER", rec.PeakID)
	assert.Equal(t, "2002", rec.Year)
	assert.Equal(t, "1", rec.MDeaths)
	assert.Equal(t, "2002-05-16", rec.SmtDate)
}
