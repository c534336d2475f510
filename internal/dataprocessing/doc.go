// Package dataprocessing loads the expedition and peak tables that feed the
// timeline pipeline.
//
// Both tables may be CSV or XLSX. Columns are matched by case-insensitive
// header name and unknown columns are ignored, so full Himalayan Database
// exports load without trimming. Cells are kept as strings; deciding which
// values are missing or malformed is left to the timeline reconciler.
//
// Usage:
//
//	loader := dataprocessing.NewLoader(logger)
//	records, err := loader.LoadExpeditions(ctx, paths.ExpeditionsFile)
//	peaks, err := loader.LoadPeaks(ctx, paths.PeaksFile)
//
// Spreadsheet dates stored as serial numbers in bcdate, smtdate and termdate
// are converted to ISO dates while reading.
package dataprocessing
