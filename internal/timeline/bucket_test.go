package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peaktrail/pkg/contracts/domain"
)

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		in   string
		want Granularity
	}{
		{"day", GranularityDay},
		{" Month ", GranularityMonth},
		{"YEAR", GranularityYear},
		{"year-season", GranularityYearSeason},
		{"year_season", GranularityYearSeason},
	}
	for _, tt := range tests {
		got, err := ParseGranularity(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseGranularity("week")
	assert.Error(t, err)
}

func TestBucketKeyString(t *testing.T) {
	assert.Equal(t, "1953-05-29", BucketKey{Year: 1953, Month: time.May, Day: 29}.String())
	assert.Equal(t, "1953-05", BucketKey{Year: 1953, Month: time.May}.String())
	assert.Equal(t, "1953-S1", BucketKey{Year: 1953, Season: domain.SeasonSpring}.String())
	assert.Equal(t, "1953", BucketKey{Year: 1953}.String())
}

func TestBucketKeySeasonLabel(t *testing.T) {
	assert.Equal(t, "Autumn", BucketKey{Year: 2000, Season: domain.SeasonAutumn}.SeasonLabel())
	assert.Equal(t, "Spring", BucketKey{Year: 1953, Month: time.May, Day: 29}.SeasonLabel())
	assert.Equal(t, "Winter", BucketKey{Year: 1953, Month: time.January}.SeasonLabel())
	assert.Equal(t, "", BucketKey{Year: 1953}.SeasonLabel())
}

func TestBucketStrategiesNext(t *testing.T) {
	assert.Equal(t, BucketKey{Year: 2001, Month: time.January, Day: 1},
		dayBuckets{}.next(BucketKey{Year: 2000, Month: time.December, Day: 31}))
	assert.Equal(t, BucketKey{Year: 2001, Month: time.January},
		monthBuckets{}.next(BucketKey{Year: 2000, Month: time.December}))
	assert.Equal(t, BucketKey{Year: 2001, Season: domain.SeasonSpring},
		yearSeasonBuckets{}.next(BucketKey{Year: 2000, Season: domain.SeasonWinter}))
	assert.Equal(t, BucketKey{Year: 2001}, yearBuckets{}.next(BucketKey{Year: 2000}))
}

func TestBucketKeyLess(t *testing.T) {
	assert.True(t, BucketKey{Year: 1999, Season: domain.SeasonWinter}.Less(BucketKey{Year: 2000, Season: domain.SeasonSpring}))
	assert.True(t, BucketKey{Year: 2000, Month: time.January, Day: 31}.Less(BucketKey{Year: 2000, Month: time.February, Day: 1}))
	assert.False(t, BucketKey{Year: 2000}.Less(BucketKey{Year: 2000}))
}

func TestDayBucketsValid(t *testing.T) {
	assert.True(t, dayBuckets{}.valid(BucketKey{Year: 2004, Month: time.February, Day: 29}))
	assert.False(t, dayBuckets{}.valid(BucketKey{Year: 2003, Month: time.February, Day: 29}))
	assert.False(t, dayBuckets{}.valid(BucketKey{Year: 2003}))
}
