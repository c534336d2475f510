package timeline

import (
	"fmt"

	"peaktrail/pkg/contracts/domain"
)

// Axes declares the grid the densifier fills: every bucket in [From, To] for
// every peak in Peaks.
type Axes struct {
	Granularity Granularity
	Peaks       []string
	From        BucketKey
	To          BucketKey
}

// AxesFor derives the bucket bounds from the observed rows. Year-season
// bounds widen to whole years so every observed year carries all four
// seasons.
func AxesFor(rows []AggregateRow, g Granularity, peaks []string) (Axes, error) {
	if len(rows) == 0 {
		return Axes{}, &RangeError{Axis: "bucket", Reason: "no aggregate rows to derive bounds from", Err: ErrEmptyRange}
	}

	from, to := rows[0].Bucket, rows[0].Bucket
	for _, r := range rows[1:] {
		if r.Bucket.Less(from) {
			from = r.Bucket
		}
		if to.Less(r.Bucket) {
			to = r.Bucket
		}
	}

	if g == GranularityYearSeason {
		from = BucketKey{Year: from.Year, Season: domain.SeasonSpring}
		to = BucketKey{Year: to.Year, Season: domain.SeasonWinter}
	}

	axes := Axes{Granularity: g, Peaks: peaks, From: from, To: to}
	return axes, axes.Validate()
}

// Validate checks that both axes can be enumerated.
func (a Axes) Validate() error {
	strategy, err := strategyFor(a.Granularity)
	if err != nil {
		return err
	}
	if len(a.Peaks) == 0 {
		return &RangeError{Axis: "peak", Reason: "no peaks selected", Err: ErrEmptyRange}
	}
	if !strategy.valid(a.From) || !strategy.valid(a.To) {
		return &RangeError{
			Axis:   "bucket",
			Reason: fmt.Sprintf("bounds %s..%s are not %s buckets", a.From, a.To, a.Granularity),
			Err:    ErrEmptyRange,
		}
	}
	if a.To.Less(a.From) {
		return &RangeError{
			Axis:   "bucket",
			Reason: fmt.Sprintf("end %s is before start %s", a.To, a.From),
			Err:    ErrInvertedRange,
		}
	}
	return nil
}

// Buckets returns an iterator over the bucket axis. The axes must be valid.
func (a Axes) Buckets() *BucketIterator {
	strategy, _ := strategyFor(a.Granularity)
	return &BucketIterator{strategy: strategy, from: a.From, to: a.To}
}

// BucketCount returns the cardinality of the bucket axis.
func (a Axes) BucketCount() int {
	if a.Validate() != nil {
		return 0
	}
	n := 0
	for it := a.Buckets(); it.Next(); {
		n++
	}
	return n
}

// Size returns the number of cells in the grid.
func (a Axes) Size() int {
	return len(a.Peaks) * a.BucketCount()
}

// BucketIterator walks the bucket axis in chronological order without
// materialising it.
type BucketIterator struct {
	strategy bucketStrategy
	from, to BucketKey
	cur      BucketKey
	started  bool
}

// Next advances to the next bucket and reports whether there is one.
func (it *BucketIterator) Next() bool {
	if !it.started {
		it.started = true
		it.cur = it.from
	} else {
		it.cur = it.strategy.next(it.cur)
	}
	return !it.to.Less(it.cur)
}

// Key returns the current bucket.
func (it *BucketIterator) Key() BucketKey {
	return it.cur
}

// Densify left-joins rows onto the full grid described by axes. Cells with
// no row get zero counts and Occurred == false. The result is ordered by peak
// (axis order) then bucket. Rows that fall outside the axes are an error
// rather than being silently lost.
func Densify(rows []AggregateRow, axes Axes) ([]DenseRow, error) {
	if err := axes.Validate(); err != nil {
		return nil, err
	}

	index := make(map[groupKey]AggregateRow, len(rows))
	for _, r := range rows {
		k := groupKey{peak: r.PeakID, bucket: r.Bucket}
		if _, dup := index[k]; dup {
			return nil, fmt.Errorf("densify: duplicate aggregate key %s/%s", r.PeakID, r.Bucket)
		}
		index[k] = r
	}

	var dense []DenseRow
	matched := 0
	for _, peak := range axes.Peaks {
		for it := axes.Buckets(); it.Next(); {
			k := groupKey{peak: peak, bucket: it.Key()}
			if r, ok := index[k]; ok {
				dense = append(dense, DenseRow{AggregateRow: r, Occurred: r.Expeditions > 0})
				matched++
				continue
			}
			dense = append(dense, DenseRow{AggregateRow: AggregateRow{PeakID: peak, Bucket: k.bucket}})
		}
	}

	if matched != len(index) {
		return nil, &RangeError{
			Axis:   "bucket",
			Reason: fmt.Sprintf("%d aggregate rows fall outside the declared axes", len(index)-matched),
		}
	}
	if want := axes.Size(); len(dense) != want {
		return nil, fmt.Errorf("%w: got %d rows, want %d", ErrGridMismatch, len(dense), want)
	}

	return dense, nil
}

// Rollup coarsens a dense day or month grid to month or year buckets by
// summing counts. A coarse bucket occurred if any of its fine buckets did.
func Rollup(rows []DenseRow, to Granularity) ([]DenseRow, error) {
	var coarsen func(BucketKey) BucketKey
	switch to {
	case GranularityMonth:
		coarsen = func(k BucketKey) BucketKey { return BucketKey{Year: k.Year, Month: k.Month} }
	case GranularityYear:
		coarsen = func(k BucketKey) BucketKey { return BucketKey{Year: k.Year} }
	default:
		return nil, &ValidationError{Field: "rollup", Message: "can only roll up to month or year", Value: string(to)}
	}

	index := make(map[groupKey]int)
	var out []DenseRow
	for _, r := range rows {
		if to == GranularityMonth && r.Bucket.Month == 0 {
			return nil, &ValidationError{Field: "rollup", Message: "month rollup needs date-based buckets", Value: r.Bucket.String()}
		}

		k := groupKey{peak: r.PeakID, bucket: coarsen(r.Bucket)}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, DenseRow{AggregateRow: AggregateRow{PeakID: k.peak, Bucket: k.bucket}})
		}

		o := &out[i]
		o.Deaths += r.Deaths
		o.Members += r.Members
		o.Summits += r.Summits
		o.Successes += r.Successes
		o.Expeditions += r.Expeditions
		o.Occurred = o.Occurred || r.Occurred
	}

	return out, nil
}
