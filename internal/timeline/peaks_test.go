package timeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func totalsRows(totals map[string]int, order []string) []AggregateRow {
	rows := make([]AggregateRow, 0, len(order))
	for _, id := range order {
		rows = append(rows, AggregateRow{PeakID: id, Bucket: BucketKey{Year: 2000}, Expeditions: totals[id]})
	}
	return rows
}

func TestTopNStableTieBreak(t *testing.T) {
	order := []string{"P1", "P2", "P3", "P4", "P5", "P6"}
	totals := map[string]int{"P1": 10, "P2": 10, "P3": 8, "P4": 7, "P5": 7, "P6": 5}
	rows := totalsRows(totals, order)

	want := []string{"P1", "P2", "P3", "P4", "P5"}
	for i := 0; i < 20; i++ {
		got, err := TopN{N: 5}.Select(rows)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Ties are broken by input order, not by ID.
	swapped := totalsRows(totals, []string{"P2", "P1", "P3", "P5", "P4", "P6"})
	got, err := TopN{N: 5}.Select(swapped)
	require.NoError(t, err)
	assert.Equal(t, []string{"P2", "P1", "P3", "P5", "P4"}, got)
}

func TestTopNSumsAcrossBuckets(t *testing.T) {
	rows := []AggregateRow{
		{PeakID: "A", Bucket: BucketKey{Year: 2000}, Expeditions: 3},
		{PeakID: "B", Bucket: BucketKey{Year: 2000}, Expeditions: 4},
		{PeakID: "A", Bucket: BucketKey{Year: 2001}, Expeditions: 2},
	}

	got, err := TopN{N: 1}.Select(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got)

	got, err = TopN{N: 10}.Select(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got)
}

func TestTopNRejectsNonPositive(t *testing.T) {
	_, err := TopN{N: 0}.Select(nil)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestFixedSelector(t *testing.T) {
	got, err := Fixed{IDs: []string{"LHOT", " EVER", "LHOT", ""}}.Select(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"LHOT", "EVER"}, got)

	_, err = Fixed{}.Select(nil)
	assert.Error(t, err)
}

func TestAllAndCombinedSelectors(t *testing.T) {
	rows := []AggregateRow{{PeakID: "LHOT"}, {PeakID: "AMAD"}, {PeakID: "LHOT"}}

	got, err := All{}.Select(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"AMAD", "LHOT"}, got)

	got, err = Combined{}.Select(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, got)

	assert.False(t, groupsByPeak(Combined{}))
	assert.True(t, groupsByPeak(TopN{N: 5}))
}
