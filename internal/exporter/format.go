package exporter

import (
	"fmt"
	"strconv"
)

// formatChange renders a percentage change the way the dashboard shows it
func formatChange(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}

// formatPercent renders a percentage change for machine-readable output
func formatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}
