package exporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"eventkpi/pkg/contracts/domain"
)

const (
	summarySheet = "KPI Comparison"
	trendSheet   = "Trend"
)

// WriteSummaryXLSX writes a workbook with the KPI summary on the first
// sheet and both cumulative trend series on the second
func WriteSummaryXLSX(out io.Writer, result *domain.ComparisonResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	header := SummaryHeader(result)
	for i, name := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(summarySheet, cell, name)
	}
	for rowIdx, row := range SummaryRows(result) {
		values := []interface{}{string(row.KPI), row.A, row.B, row.ChangePct}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(summarySheet, cell, v)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(summarySheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 30); err != nil {
		return fmt.Errorf("failed to size column: %w", err)
	}

	if _, err := f.NewSheet(trendSheet); err != nil {
		return fmt.Errorf("failed to create trend sheet: %w", err)
	}
	writeTrend(f, 1, result.TrendA)
	writeTrend(f, 5, result.TrendB)
	if err := f.SetCellStyle(trendSheet, "A1", "G2", bold); err != nil {
		return fmt.Errorf("failed to style trend header: %w", err)
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeTrend lays one series out in three columns starting at col
func writeTrend(f *excelize.File, col int, series domain.TrendSeries) {
	set := func(c, r int, v interface{}) {
		cell, _ := excelize.CoordinatesToCellName(c, r)
		f.SetCellValue(trendSheet, cell, v)
	}

	set(col, 1, strconv.Itoa(series.Label))
	axis := "Date"
	if series.Axis == domain.AxisDaysBefore {
		axis = "Days Before"
	}
	set(col, 2, axis)
	set(col+1, 2, "Registrations")
	set(col+2, 2, "Cumulative")

	for i, p := range series.Points {
		row := i + 3
		switch {
		case p.Date != nil:
			set(col, row, p.Date.Format(domain.ISODate))
		case p.DaysBefore != nil:
			set(col, row, *p.DaysBefore)
		}
		set(col+1, row, p.Count)
		set(col+2, row, p.Cumulative)
	}
}
