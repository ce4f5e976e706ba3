package kpi

import (
	"math"
	"sort"
	"time"

	apperrors "eventkpi/internal/errors"
	"eventkpi/pkg/contracts/domain"
)

// BuildTrend returns the cumulative registration curve of one side. Only
// rows at or before cutoff that pass the job filter are counted. The
// days-before axis needs the side's reference date.
func BuildTrend(side domain.Side, axis domain.AxisMode, cutoff time.Time, job string) (domain.TrendSeries, error) {
	series := domain.TrendSeries{Label: side.Label, Axis: axis, Points: []domain.TrendPoint{}}
	if side.Dataset == nil {
		return series, nil
	}

	records := FilterJob(side.Dataset.Capabilities, InScope(side.Dataset, cutoff), job)

	switch axis {
	case domain.AxisCalendar, "":
		series.Axis = domain.AxisCalendar
		series.Points = calendarPoints(records)
	case domain.AxisDaysBefore:
		if side.ReferenceDate == nil {
			return series, apperrors.NewAppValidationError("days-before axis requires a reference date for both years").
				WithContext("year", side.Label)
		}
		series.Points = daysBeforePoints(records, *side.ReferenceDate)
	default:
		return series, apperrors.NewAppValidationError("unknown trend axis").
			WithContext("axis", string(axis))
	}
	return series, nil
}

// BuildTrends builds both series on the same axis
func BuildTrends(cc domain.ComparisonContext, cutoffA, cutoffB time.Time) (domain.TrendSeries, domain.TrendSeries, error) {
	a, err := BuildTrend(cc.A, cc.Axis, cutoffA, cc.Filters.JobClassification)
	if err != nil {
		return domain.TrendSeries{}, domain.TrendSeries{}, err
	}
	b, err := BuildTrend(cc.B, cc.Axis, cutoffB, cc.Filters.JobClassification)
	if err != nil {
		return domain.TrendSeries{}, domain.TrendSeries{}, err
	}
	return a, b, nil
}

// DaysBefore is the whole number of days from ts to ref, rounded down.
// Registrations after ref are negative.
func DaysBefore(ref, ts time.Time) int {
	return int(math.Floor(ref.Sub(ts).Hours() / 24))
}

func calendarPoints(records []domain.RegistrationRecord) []domain.TrendPoint {
	counts := make(map[time.Time]int)
	for _, rec := range records {
		counts[truncateDay(*rec.Timestamp)]++
	}

	days := make([]time.Time, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	points := make([]domain.TrendPoint, 0, len(days))
	total := 0
	for _, d := range days {
		day := d
		total += counts[d]
		points = append(points, domain.TrendPoint{Date: &day, Count: counts[d], Cumulative: total})
	}
	return points
}

func daysBeforePoints(records []domain.RegistrationRecord, ref time.Time) []domain.TrendPoint {
	counts := make(map[int]int)
	for _, rec := range records {
		counts[DaysBefore(ref, *rec.Timestamp)]++
	}

	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))

	points := make([]domain.TrendPoint, 0, len(keys))
	total := 0
	for _, k := range keys {
		days := k
		total += counts[k]
		points = append(points, domain.TrendPoint{DaysBefore: &days, Count: counts[k], Cumulative: total})
	}
	return points
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
