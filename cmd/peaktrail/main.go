package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"peaktrail/internal/config"
	"peaktrail/internal/exporter"
	"peaktrail/internal/infrastructure"
	"peaktrail/internal/services"
	"peaktrail/internal/timeline"
	apiv1 "peaktrail/pkg/contracts/api/v1"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	inDir       string
	outDir      string
	granularity string
	rollup      string
	top         int
	peaks       string
	combined    bool
	formats     string
	perPeak     bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("peaktrail", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file (defaults to peaktrail.yaml or config.yaml if present)")
	fs.StringVar(&opts.inDir, "in", "", "input directory holding the expedition and peak tables")
	fs.StringVar(&opts.outDir, "out", "", "output directory for the generated files")
	fs.StringVar(&opts.granularity, "granularity", "", "bucket granularity: day, month, year or year-season")
	fs.StringVar(&opts.rollup, "rollup", "", "regroup the dense grid to month or year")
	fs.IntVar(&opts.top, "top", 0, "keep the N peaks with the most expeditions")
	fs.StringVar(&opts.peaks, "peaks", "", "comma separated peak ids to keep, e.g. EVER,AMAD")
	fs.BoolVar(&opts.combined, "combined", false, "pool every peak into one series")
	fs.StringVar(&opts.formats, "format", "csv", "comma separated output formats: csv, json, xlsx")
	fs.BoolVar(&opts.perPeak, "per-peak", false, "also write timeline_<peak>.csv for every peak")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.top < 0 {
		return nil, fmt.Errorf("-top must not be negative")
	}
	return opts, nil
}

// request maps the override flags onto the same request the HTTP API takes.
func (o *options) request() apiv1.TimelineRequest {
	req := apiv1.TimelineRequest{
		Granularity: o.granularity,
		Rollup:      strings.ToLower(o.rollup),
		Top:         o.top,
		Combined:    o.combined,
	}
	for _, id := range strings.Split(o.peaks, ",") {
		if id = strings.ToUpper(strings.TrimSpace(id)); id != "" {
			req.Peaks = append(req.Peaks, id)
		}
	}
	return req
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("peaktrail failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run loads the input tables, builds the timeline and writes every requested
// output file.
func run(ctx context.Context, args []string, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.inDir != "" {
		cfg.Paths.InputDir = opts.inDir
	}
	if opts.outDir != "" {
		cfg.Paths.OutputDir = opts.outDir
	}

	formats, err := exporter.ParseFormats(opts.formats)
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	paths, err := cfg.Paths.Resolve()
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create required directories: %w", err)
	}
	paths.LogPathResolution(logger)

	ctx = infrastructure.ContextWithTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)
	start := time.Now()

	pipelineCfg := services.ApplyRequest(cfg.Pipeline, opts.request())
	tcfg, err := pipelineCfg.ToTimeline()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Starting timeline build",
		slog.String("input_dir", paths.InputDir),
		slog.String("output_dir", paths.OutputDir),
		slog.String("granularity", string(tcfg.Granularity)),
		slog.String("peak_mode", pipelineCfg.PeakMode),
		slog.Any("formats", formats))

	inputs, err := services.NewInputLoader(paths.InputDir, logger).Load(ctx, paths.ExpeditionsFile, paths.PeaksFile)
	if err != nil {
		return err
	}

	pipeline, err := timeline.NewPipeline(tcfg, logger)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(ctx, inputs.Records)
	if err != nil {
		return fmt.Errorf("timeline build failed: %w", err)
	}

	written, err := exporter.NewExporter(paths, logger).Export(ctx, res, inputs.Peaks, exporter.Options{
		Formats: formats,
		PerPeak: opts.perPeak,
		RunID:   runID,
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Timeline build complete",
		slog.Int("records", len(inputs.Records)),
		slog.Int("peaks", len(res.Peaks)),
		slog.Int("rows", len(res.Rows)),
		slog.Int("files", len(written)),
		slog.Duration("duration", time.Since(start)))
	return nil
}
