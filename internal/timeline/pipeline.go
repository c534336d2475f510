package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/stat"

	"peaktrail/pkg/contracts/domain"
)

const instrumentationName = "peaktrail/internal/timeline"

// ErrNoFacts is returned when every record was rejected or dropped.
var ErrNoFacts = errors.New("no expedition facts survived reconciliation")

// Config wires every stage of the pipeline.
type Config struct {
	Granularity Granularity
	// Rollup, when set, coarsens the dense grid before flagging. Only
	// day->month and any->year are supported.
	Rollup     Granularity
	Selector   PeakSelector
	Thresholds Thresholds
	Scale      ScaleParams
	Reconcile  ReconcileOptions
}

// DefaultConfig returns the year-season, top 5 configuration.
func DefaultConfig() Config {
	return Config{
		Granularity: GranularityYearSeason,
		Selector:    TopN{N: 5},
		Thresholds:  DefaultThresholds(),
		Scale:       DefaultScaleParams(),
		Reconcile:   DefaultReconcileOptions(),
	}
}

// Validate checks the configuration before any data is touched.
func (c Config) Validate() error {
	if _, err := strategyFor(c.Granularity); err != nil {
		return err
	}
	if c.Rollup != "" {
		switch {
		case c.Rollup == GranularityMonth && c.Granularity != GranularityDay:
			return &ValidationError{Field: "rollup", Message: "month rollup requires day granularity", Value: string(c.Rollup)}
		case c.Rollup != GranularityMonth && c.Rollup != GranularityYear:
			return &ValidationError{Field: "rollup", Message: "must be month or year", Value: string(c.Rollup)}
		case c.Rollup == c.Granularity:
			return &ValidationError{Field: "rollup", Message: "must be coarser than granularity", Value: string(c.Rollup)}
		}
	}
	if c.Selector == nil {
		return &ValidationError{Field: "selector", Message: "is required"}
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if err := c.Scale.Validate(); err != nil {
		return err
	}
	if _, err := ParseMalformedPolicy(string(c.Reconcile.OnMalformed)); err != nil {
		return err
	}
	return nil
}

// StageReport records the row counts and timing of one stage.
type StageReport struct {
	Name     string        `json:"name"`
	RowsIn   int           `json:"rows_in"`
	RowsOut  int           `json:"rows_out"`
	Duration time.Duration `json:"duration"`
}

// Result is the output of one pipeline run.
type Result struct {
	Granularity Granularity
	Rows        []ScaledRow
	Peaks       []string
	Reconcile   ReconcileResult
	Stages      []StageReport
	Summary     Summary
}

// Summary describes a run for reports and the HTTP API.
type Summary struct {
	Granularity     string  `json:"granularity"`
	Peaks           int     `json:"peaks"`
	RecordsRead     int     `json:"records_read"`
	FactsKept       int     `json:"facts_kept"`
	RecordsRejected int     `json:"records_rejected"`
	RecordsDropped  int     `json:"records_dropped"`
	DenseRows       int     `json:"dense_rows"`
	EmittedRows     int     `json:"emitted_rows"`
	DashedRows      int     `json:"dashed_rows"`
	HighDeathRows   int     `json:"high_death_rows"`
	HighSuccessRows int     `json:"high_success_rows"`
	Totals          Totals  `json:"totals"`
	MeanMagnitude   float64 `json:"mean_magnitude"`
}

// Entries converts the scaled rows into output records.
func (r *Result) Entries() []domain.TimelineEntry {
	entries := make([]domain.TimelineEntry, len(r.Rows))
	for i, row := range r.Rows {
		entries[i] = domain.TimelineEntry{
			PeakID:          row.PeakID,
			BucketIndex:     row.Index,
			Bucket:          row.Bucket.String(),
			Year:            row.Bucket.Year,
			Season:          row.Bucket.SeasonLabel(),
			Magnitude:       row.Magnitude,
			IsDashed:        row.Dashed,
			HighDeathRate:   row.HighDeathRate,
			HighSuccessRate: row.HighSuccessRate,
			Deaths:          row.Deaths,
			Expeditions:     row.Expeditions,
		}
	}
	return entries
}

// TimelineSummary converts the summary into the contract type.
func (r *Result) TimelineSummary(runID string) domain.TimelineSummary {
	s := r.Summary
	return domain.TimelineSummary{
		RunID:            runID,
		Granularity:      s.Granularity,
		Peaks:            r.Peaks,
		RecordsRead:      s.RecordsRead,
		FactsKept:        s.FactsKept,
		RecordsRejected:  s.RecordsRejected,
		RecordsDropped:   s.RecordsDropped,
		DenseRows:        s.DenseRows,
		EmittedRows:      s.EmittedRows,
		DashedRows:       s.DashedRows,
		HighDeathRows:    s.HighDeathRows,
		HighSuccessRows:  s.HighSuccessRows,
		TotalDeaths:      s.Totals.Deaths,
		TotalExpeditions: s.Totals.Expeditions,
		TotalSuccesses:   s.Totals.Successes,
		MeanMagnitude:    s.MeanMagnitude,
	}
}

// Pipeline runs the reconcile, aggregate, densify, flag and normalise stages
// in order.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer

	stageRows     metric.Int64Histogram
	stageDuration metric.Float64Histogram
	rejected      metric.Int64Counter
	dropped       metric.Int64Counter
}

// NewPipeline validates cfg and creates a pipeline. The reconciler always
// buckets with cfg.Granularity. Instruments are taken
// from the global OpenTelemetry providers, which are no-ops until
// infrastructure.InitializeOTel has run.
func NewPipeline(cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Reconcile.Granularity = cfg.Granularity
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	meter := otel.Meter(instrumentationName)
	p := &Pipeline{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
	}

	var err error
	if p.stageRows, err = meter.Int64Histogram("peaktrail_stage_rows",
		metric.WithDescription("Rows produced by each pipeline stage")); err != nil {
		return nil, fmt.Errorf("create stage rows histogram: %w", err)
	}
	if p.stageDuration, err = meter.Float64Histogram("peaktrail_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create stage duration histogram: %w", err)
	}
	if p.rejected, err = meter.Int64Counter("peaktrail_rejected_records_total",
		metric.WithDescription("Malformed expedition records skipped")); err != nil {
		return nil, fmt.Errorf("create rejected counter: %w", err)
	}
	if p.dropped, err = meter.Int64Counter("peaktrail_dropped_records_total",
		metric.WithDescription("Expedition records removed by filters")); err != nil {
		return nil, fmt.Errorf("create dropped counter: %w", err)
	}

	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run executes every stage over records.
func (p *Pipeline) Run(ctx context.Context, records []domain.RawRecord) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "timeline.run",
		trace.WithAttributes(
			attribute.String("granularity", p.cfg.Granularity.String()),
			attribute.String("selector", p.cfg.Selector.String()),
			attribute.Int("records", len(records)),
		))
	defer span.End()

	start := time.Now()
	p.logger.InfoContext(ctx, "starting timeline pipeline",
		"granularity", p.cfg.Granularity,
		"rollup", p.cfg.Rollup,
		"selector", p.cfg.Selector.String(),
		"records", len(records),
	)

	res, err := p.run(ctx, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.ErrorContext(ctx, "timeline pipeline failed", "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("rows", len(res.Rows)))
	p.logger.InfoContext(ctx, "timeline pipeline complete",
		"peaks", len(res.Peaks),
		"rows", len(res.Rows),
		"rejected", res.Summary.RecordsRejected,
		"dropped", res.Summary.RecordsDropped,
		"duration", time.Since(start),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, records []domain.RawRecord) (*Result, error) {
	res := &Result{Granularity: p.cfg.Granularity}
	outGranularity := p.cfg.Granularity

	// Reconcile
	var rec ReconcileResult
	err := p.stage(ctx, res, "reconcile", len(records), func(ctx context.Context) (int, error) {
		var err error
		rec, err = Reconcile(records, p.cfg.Reconcile)
		return len(rec.Facts), err
	})
	if err != nil {
		return nil, err
	}
	res.Reconcile = rec
	for _, r := range rec.Rejected {
		p.logger.WarnContext(ctx, "skipping malformed record",
			"line", r.Line, "exp_id", r.ExpID, "field", r.Field, "value", r.Value)
	}
	p.rejected.Add(ctx, int64(len(rec.Rejected)))
	for reason, n := range rec.Dropped {
		p.dropped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", string(reason))))
	}
	if len(rec.Facts) == 0 {
		return nil, ErrNoFacts
	}

	// Aggregate and select peaks
	var aggs []AggregateRow
	err = p.stage(ctx, res, "aggregate", len(rec.Facts), func(ctx context.Context) (int, error) {
		aggs = Aggregate(rec.Facts, groupsByPeak(p.cfg.Selector))
		return len(aggs), nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, res, "select", len(aggs), func(ctx context.Context) (int, error) {
		var err error
		if res.Peaks, err = p.cfg.Selector.Select(aggs); err != nil {
			return 0, err
		}
		aggs = FilterPeaks(aggs, res.Peaks)
		return len(aggs), nil
	})
	if err != nil {
		return nil, err
	}

	// Densify
	var dense []DenseRow
	err = p.stage(ctx, res, "densify", len(aggs), func(ctx context.Context) (int, error) {
		axes, err := p.axes(aggs, res.Peaks)
		if err != nil {
			return 0, err
		}
		if dense, err = Densify(aggs, axes); err != nil {
			return 0, err
		}
		return len(dense), nil
	})
	if err != nil {
		return nil, err
	}

	if p.cfg.Rollup != "" {
		err = p.stage(ctx, res, "rollup", len(dense), func(ctx context.Context) (int, error) {
			var err error
			dense, err = Rollup(dense, p.cfg.Rollup)
			return len(dense), err
		})
		if err != nil {
			return nil, err
		}
		outGranularity = p.cfg.Rollup
	}
	res.Granularity = outGranularity

	// Flags
	var flagged []FlaggedRow
	err = p.stage(ctx, res, "flags", len(dense), func(ctx context.Context) (int, error) {
		flagged = ApplyFlags(dense, p.cfg.Thresholds)
		return len(flagged), nil
	})
	if err != nil {
		return nil, err
	}

	// Normalize
	err = p.stage(ctx, res, "normalize", len(flagged), func(ctx context.Context) (int, error) {
		var err error
		res.Rows, err = Normalize(flagged, p.cfg.Scale)
		return len(res.Rows), err
	})
	if err != nil {
		return nil, err
	}

	res.Summary = summarize(res, len(records), len(dense))
	return res, nil
}

// axes derives the grid bounds. A fixed peak list may name peaks with no
// data, so bounds come from all kept rows rather than per peak.
func (p *Pipeline) axes(aggs []AggregateRow, peaks []string) (Axes, error) {
	if len(aggs) == 0 {
		return Axes{}, &RangeError{Axis: "bucket", Reason: fmt.Sprintf("no data for peaks %v", peaks), Err: ErrEmptyRange}
	}
	return AxesFor(aggs, p.cfg.Granularity, peaks)
}

// stage runs fn inside a span, records its report and checks for
// cancellation first.
func (p *Pipeline) stage(ctx context.Context, res *Result, name string, rowsIn int, fn func(context.Context) (int, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	ctx, span := p.tracer.Start(ctx, "timeline."+name, trace.WithAttributes(attribute.Int("rows_in", rowsIn)))
	defer span.End()

	start := time.Now()
	rowsOut, err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", name, err)
	}

	span.SetAttributes(attribute.Int("rows_out", rowsOut))
	attrs := metric.WithAttributes(attribute.String("stage", name))
	p.stageRows.Record(ctx, int64(rowsOut), attrs)
	p.stageDuration.Record(ctx, elapsed.Seconds(), attrs)

	res.Stages = append(res.Stages, StageReport{Name: name, RowsIn: rowsIn, RowsOut: rowsOut, Duration: elapsed})
	p.logger.DebugContext(ctx, "stage complete", "stage", name, "rows_in", rowsIn, "rows_out", rowsOut, "duration", elapsed)
	return nil
}

func summarize(res *Result, records, dense int) Summary {
	s := Summary{
		Granularity:     res.Granularity.String(),
		Peaks:           len(res.Peaks),
		RecordsRead:     records,
		FactsKept:       len(res.Reconcile.Facts),
		RecordsRejected: len(res.Reconcile.Rejected),
		RecordsDropped:  res.Reconcile.DroppedTotal(),
		DenseRows:       dense,
		EmittedRows:     len(res.Rows),
		Totals:          SumFacts(res.Reconcile.Facts),
	}

	mags := make([]float64, 0, len(res.Rows))
	for _, r := range res.Rows {
		mags = append(mags, r.Magnitude)
		if r.Dashed {
			s.DashedRows++
		}
		if r.HighDeathRate {
			s.HighDeathRows++
		}
		if r.HighSuccessRate {
			s.HighSuccessRows++
		}
	}
	if len(mags) > 0 {
		s.MeanMagnitude = stat.Mean(mags, nil)
	}
	return s
}
