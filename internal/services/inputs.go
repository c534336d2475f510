package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"peaktrail/internal/dataprocessing"
	apierrors "peaktrail/internal/errors"
	"peaktrail/internal/files"
	"peaktrail/internal/validation"
	"peaktrail/pkg/contracts/domain"
)

// Inputs is one snapshot of the expedition and peak tables.
type Inputs struct {
	Records         []domain.RawRecord
	Peaks           domain.PeakLookup
	ExpeditionsFile string
	PeaksFile       string
	LoadedAt        time.Time
}

// InputLoader locates, validates and reads the input tables.
type InputLoader struct {
	discovery *files.Discovery
	validator *validation.FileValidator
	loader    *dataprocessing.Loader
	logger    *slog.Logger
}

// NewInputLoader creates an input loader. Relative table paths resolve
// against baseDir.
func NewInputLoader(baseDir string, logger *slog.Logger) *InputLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputLoader{
		discovery: files.NewDiscovery(baseDir),
		validator: validation.NewFileValidator(logger),
		loader:    dataprocessing.NewLoader(logger),
		logger:    logger.With(slog.String("component", "input_loader")),
	}
}

// Load reads both tables concurrently. A table configured as exped.csv is
// also found as exped.xlsx.
func (l *InputLoader) Load(ctx context.Context, expeditionsPath, peaksPath string) (*Inputs, error) {
	expTable, err := l.discovery.LocateTable(expeditionsPath)
	if err != nil {
		return nil, apierrors.NewStorageError("expedition table not found", err)
	}
	peakTable, err := l.discovery.LocateTable(peaksPath)
	if err != nil {
		return nil, apierrors.NewStorageError("peak table not found", err)
	}

	if err := l.validator.ValidateInputs(expTable.Path, peakTable.Path); err != nil {
		return nil, apierrors.NewStorageError("input tables failed validation", err)
	}

	in := &Inputs{ExpeditionsFile: expTable.Path, PeaksFile: peakTable.Path}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := l.loader.LoadExpeditions(gctx, expTable.Path)
		if err != nil {
			return err
		}
		in.Records = records
		return nil
	})
	g.Go(func() error {
		peaks, err := l.loader.LoadPeaks(gctx, peakTable.Path)
		if err != nil {
			return err
		}
		in.Peaks = peaks
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}
	in.LoadedAt = time.Now()

	l.logger.InfoContext(ctx, "Inputs loaded",
		slog.String("expeditions_file", expTable.Path),
		slog.String("peaks_file", peakTable.Path),
		slog.Int("records", len(in.Records)),
		slog.Int("peaks", len(in.Peaks)),
		slog.Duration("duration", time.Since(start)))
	return in, nil
}
