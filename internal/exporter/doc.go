// Package exporter writes pipeline results to the output directory.
//
// Timeline rows are written as CSV (combined, and optionally one file per
// peak), as JSON in the same shape the HTTP API returns, and as an XLSX
// workbook with a summary sheet followed by one sheet per peak. The peak
// lookup is written as peaks.csv and every run gets a plain text summary
// report.
//
// Every file goes through files.Manager.WriteAtomic, so readers never see a
// half written output.
//
// Example usage:
//
//	exp := exporter.NewExporter(paths, logger)
//	written, err := exp.Export(ctx, result, lookup, exporter.Options{
//		Formats: []exporter.Format{exporter.FormatCSV, exporter.FormatXLSX},
//		PerPeak: true,
//		RunID:   runID,
//	})
package exporter
