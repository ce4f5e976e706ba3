// Package exporter renders comparison results for people and spreadsheets.
//
// Every format starts from the same summary: one row per KPI holding the
// value for each year and the percentage change between them.
//
// CSVWriter: CSV output with an optional UTF-8 BOM so Excel detects the
// encoding, to a writer or into the exports directory.
//
// WriteSummaryXLSX: a workbook with the KPI summary and both cumulative
// trend series.
//
// RenderTable: a terminal table for the command line tool.
//
// Example usage:
//
//	rows := exporter.SummaryRows(result)
//	err := exporter.Write(w, result, exporter.FormatXLSX)
package exporter
