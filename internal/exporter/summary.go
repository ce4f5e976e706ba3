package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"eventkpi/pkg/contracts/domain"
)

// Format is a summary export format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name case-insensitively
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType is the MIME type served for f
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// SummaryRow is one KPI of the summary table
type SummaryRow struct {
	KPI       domain.KpiName
	A         int
	B         int
	ChangePct float64
}

// SummaryRows lists the KPIs of result in display order
func SummaryRows(result *domain.ComparisonResult) []SummaryRow {
	if result == nil {
		return nil
	}
	rows := make([]SummaryRow, 0, len(result.Deltas))
	for _, d := range result.Deltas {
		rows = append(rows, SummaryRow{KPI: d.Name, A: d.A, B: d.B, ChangePct: d.ChangePct})
	}
	return rows
}

// SummaryHeader is the header of the summary table, named after both years
func SummaryHeader(result *domain.ComparisonResult) []string {
	return []string{"KPI", strconv.Itoa(result.LabelA), strconv.Itoa(result.LabelB), "Change %"}
}

// Records returns the summary as CSV records without a header
func Records(result *domain.ComparisonResult) [][]string {
	rows := SummaryRows(result)
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{string(r.KPI), formatInt(r.A), formatInt(r.B), formatPercent(r.ChangePct)})
	}
	return out
}

// FileName is the suggested download name for result in format f
func FileName(result *domain.ComparisonResult, f Format) string {
	return fmt.Sprintf("kpi_comparison_%d_vs_%d.%s", result.LabelA, result.LabelB, f)
}

// Write renders the summary of result to w in format f
func Write(w io.Writer, result *domain.ComparisonResult, f Format) error {
	if result == nil {
		return fmt.Errorf("no comparison result to export")
	}
	switch f {
	case FormatCSV:
		return WriteSummaryCSV(w, result)
	case FormatXLSX:
		return WriteSummaryXLSX(w, result)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}
