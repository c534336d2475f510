package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "peaktrail/internal/errors"
	"peaktrail/internal/files"
	"peaktrail/pkg/contracts/domain"
)

// ctxCheckInterval is how many rows are read between context checks.
const ctxCheckInterval = 1024

// Loader reads the expedition and peak tables from CSV or XLSX files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a table loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "loader"))}
}

// LoadExpeditions reads every expedition row from path. The format follows
// the file extension.
func (l *Loader) LoadExpeditions(ctx context.Context, path string) ([]domain.RawRecord, error) {
	var (
		records []domain.RawRecord
		err     error
	)
	if files.IsExcel(path) {
		records, err = ReadExpeditionsXLSX(ctx, path)
	} else {
		records, err = l.readCSVFile(ctx, path, ReadExpeditionsCSV)
	}
	if err != nil {
		return nil, classify("read expedition table "+filepath.Base(path), err)
	}

	l.logger.InfoContext(ctx, "expedition table loaded",
		slog.String("path", path),
		slog.Int("records", len(records)))
	return records, nil
}

// LoadPeaks reads the peak table from path and deduplicates it on peak id.
// Conflicting names for one id are logged; the first one is kept.
func (l *Loader) LoadPeaks(ctx context.Context, path string) (domain.PeakLookup, error) {
	var (
		peaks []domain.Peak
		err   error
	)
	if files.IsExcel(path) {
		peaks, err = ReadPeaksXLSX(ctx, path)
	} else {
		peaks, err = l.readPeaksCSVFile(ctx, path)
	}
	if err != nil {
		return nil, classify("read peak table "+filepath.Base(path), err)
	}

	lookup, conflicts := domain.NewPeakLookup(peaks)
	if len(conflicts) > 0 {
		l.logger.WarnContext(ctx, "peak table lists some ids with different names, keeping the first",
			slog.String("path", path),
			slog.Any("peak_ids", conflicts))
	}

	l.logger.InfoContext(ctx, "peak table loaded",
		slog.String("path", path),
		slog.Int("rows", len(peaks)),
		slog.Int("peaks", len(lookup)))
	return lookup, nil
}

func (l *Loader) readCSVFile(ctx context.Context, path string, read func(context.Context, io.Reader) ([]domain.RawRecord, error)) ([]domain.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return read(ctx, f)
}

func (l *Loader) readPeaksCSVFile(ctx context.Context, path string) ([]domain.Peak, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPeaksCSV(ctx, f)
}

// classify wraps file system failures as storage errors and everything
// else as parsing errors. Context errors pass through unchanged.
func classify(message string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return apierrors.NewStorageError(message, err)
	}
	return apierrors.NewParsingError(message, err)
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// ReadExpeditionsCSV parses an expedition table. Header names are matched
// case-insensitively and unknown columns are ignored. Record lines are the
// 1-based line numbers of the source file.
func ReadExpeditionsCSV(ctx context.Context, r io.Reader) ([]domain.RawRecord, error) {
	cr := newCSVReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("expedition table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	mapper, err := newExpeditionMapper(header)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	for n := 0; ; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if blankRow(row) {
			continue
		}

		line, _ := cr.FieldPos(0)
		records = append(records, mapper.record(row, line))
	}

	return records, nil
}

// ReadPeaksCSV parses a peak table with peakid and pkname columns.
func ReadPeaksCSV(ctx context.Context, r io.Reader) ([]domain.Peak, error) {
	cr := newCSVReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("peak table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	mapper, err := newPeakMapper(header)
	if err != nil {
		return nil, err
	}

	var peaks []domain.Peak
	for n := 0; ; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if blankRow(row) {
			continue
		}

		if p := mapper.peak(row); strings.TrimSpace(p.ID) != "" {
			peaks = append(peaks, p)
		}
	}

	return peaks, nil
}
