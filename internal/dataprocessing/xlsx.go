package dataprocessing

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"peaktrail/pkg/contracts/domain"
)

// pickSheet returns the sheet named after the file stem (exped.xlsx ->
// "exped") when present, otherwise the first sheet.
func pickSheet(f *excelize.File, path string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, name := range sheets {
		if strings.EqualFold(name, stem) {
			return name, nil
		}
	}
	return sheets[0], nil
}

// forEachRow streams the rows of the chosen sheet. Cells are read raw so
// numeric columns are not passed through the workbook's number formats.
// rowNum counts the rows stored in the sheet, starting at 1; rows the
// workbook omits entirely are not counted.
func forEachRow(ctx context.Context, path string, fn func(row []string, rowNum int) error) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sheet, err := pickSheet(f, path)
	if err != nil {
		return err
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("open sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	for n := 1; rows.Next(); n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		row, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return fmt.Errorf("read row %d: %w", n, err)
		}
		if err := fn(row, n); err != nil {
			return err
		}
	}
	return rows.Error()
}

// excelDate turns a serial day number into an ISO date. Other values are
// returned unchanged for the date parser to handle.
func excelDate(column, value string) string {
	if !dateColumns[column] {
		return value
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial <= 0 {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02")
}

// ReadExpeditionsXLSX reads an expedition table from a workbook. The header
// must be the first non-blank row.
func ReadExpeditionsXLSX(ctx context.Context, path string) ([]domain.RawRecord, error) {
	var (
		mapper  *expeditionMapper
		records []domain.RawRecord
	)

	err := forEachRow(ctx, path, func(row []string, rowNum int) error {
		if blankRow(row) {
			return nil
		}
		if mapper == nil {
			m, err := newExpeditionMapper(row)
			if err != nil {
				return err
			}
			m.convert = excelDate
			mapper = m
			return nil
		}
		records = append(records, mapper.record(row, rowNum))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mapper == nil {
		return nil, fmt.Errorf("expedition table is empty")
	}
	return records, nil
}

// ReadPeaksXLSX reads a peak table from a workbook.
func ReadPeaksXLSX(ctx context.Context, path string) ([]domain.Peak, error) {
	var (
		mapper *peakMapper
		peaks  []domain.Peak
	)

	err := forEachRow(ctx, path, func(row []string, _ int) error {
		if blankRow(row) {
			return nil
		}
		if mapper == nil {
			m, err := newPeakMapper(row)
			if err != nil {
				return err
			}
			mapper = m
			return nil
		}
		if p := mapper.peak(row); p.ID != "" {
			peaks = append(peaks, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mapper == nil {
		return nil, fmt.Errorf("peak table is empty")
	}
	return peaks, nil
}
