package exporter

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"eventkpi/pkg/contracts/domain"
)

// RenderTable prints the KPI summary of result as a terminal table.
// Changes are colored green or red unless color output is disabled.
func RenderTable(w io.Writer, result *domain.ComparisonResult) {
	heading := color.New(color.FgYellow)
	heading.Fprintf(w, "\nKPI comparison %d vs %d\n", result.LabelA, result.LabelB)
	fmt.Fprintf(w, "Cutoff: %s / %s\n",
		result.CutoffA.Format(domain.ISODate), result.CutoffB.Format(domain.ISODate))
	if !result.Overlap.Overlaps {
		fmt.Fprintf(w, "Date ranges do not overlap: day %d of %d vs day %d of %d\n",
			result.Overlap.DayFromStartA, result.LabelA, result.Overlap.DayFromStartB, result.LabelB)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(SummaryHeader(result))
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	up := color.New(color.FgGreen).SprintFunc()
	down := color.New(color.FgRed).SprintFunc()
	for _, row := range SummaryRows(result) {
		change := formatChange(row.ChangePct)
		switch {
		case row.ChangePct > 0:
			change = up(change)
		case row.ChangePct < 0:
			change = down(change)
		}
		table.Append([]string{string(row.KPI), formatInt(row.A), formatInt(row.B), change})
	}
	table.Render()

	if result.Filters.JobClassification != "" || (result.Filters.InstitutionType != "" && result.Filters.InstitutionType != domain.InstitutionAll) {
		fmt.Fprintf(w, "Filters: job=%q institution=%q\n",
			result.Filters.JobClassification, result.Filters.InstitutionType)
	}
}
