// Package dataprocessing turns uploaded registration exports into parsed
// datasets.
//
// A load runs in three steps:
//
//  1. Decode the raw bytes to UTF-8 and read the table (CSV or XLSX).
//  2. Resolve the date column and the optional semantic columns once.
//  3. Normalize the date column to timezone-naive timestamps.
//
// Usage:
//
//	loader := dataprocessing.NewLoader(logger, dataprocessing.DefaultLoaderConfig())
//	ds, err := loader.LoadFile(ctx, "registrations_2024.csv")
//	if errors.Is(err, apperrors.ErrColumnNotFound) {
//	    // no recognizable date column
//	}
package dataprocessing
