package dataprocessing

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	apperrors "eventkpi/internal/errors"
)

// DateLayout is one whole-column date format
type DateLayout struct {
	Name   string
	Layout string
}

// DateLayouts are tried in order against the entire column. Month-first
// layouts precede day-first ones, so an ambiguous column such as
// "03/04/2024" resolves to March 4.
var DateLayouts = []DateLayout{
	{Name: "%Y-%m-%d", Layout: "2006-1-2"},
	{Name: "%m/%d/%Y", Layout: "1/2/2006"},
	{Name: "%m/%d/%y", Layout: "1/2/06"},
	{Name: "%d/%m/%Y", Layout: "2/1/2006"},
	{Name: "%d/%m/%y", Layout: "2/1/06"},
}

// MixedLayout names the per-value lenient fallback
const MixedLayout = "mixed"

// ParseDates parses a raw column into timezone-naive timestamps. Null cells
// (empty after trimming) stay nil. The first fixed layout that parses every
// non-null value wins; otherwise each value goes through a month-first
// lenient parser and any failure there fails the whole column.
func ParseDates(column string, raw []string) ([]*time.Time, string, error) {
	values := make([]string, len(raw))
	for i, v := range raw {
		values[i] = strings.TrimSpace(v)
	}

	for _, layout := range DateLayouts {
		if parsed, ok := parseWholeColumn(values, layout.Layout); ok {
			return parsed, layout.Name, nil
		}
	}

	parsed := make([]*time.Time, len(values))
	for i, v := range values {
		if v == "" {
			continue
		}
		ts, err := dateparse.ParseIn(v, time.UTC)
		if err != nil {
			return nil, "", apperrors.NewDateParseError(column, v,
				fmt.Errorf("row %d: %w", i+1, err))
		}
		naive := stripZone(ts)
		parsed[i] = &naive
	}

	return parsed, MixedLayout, nil
}

func parseWholeColumn(values []string, layout string) ([]*time.Time, bool) {
	parsed := make([]*time.Time, len(values))
	for i, v := range values {
		if v == "" {
			continue
		}
		ts, err := time.Parse(layout, v)
		if err != nil {
			return nil, false
		}
		parsed[i] = &ts
	}
	return parsed, true
}

// stripZone keeps the wall clock and drops the offset
func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
