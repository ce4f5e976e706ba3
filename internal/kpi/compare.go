package kpi

import (
	"context"
	"log/slog"
	"sort"
	"time"

	apperrors "eventkpi/internal/errors"
	"eventkpi/pkg/contracts/domain"
)

// MaxDaysBefore bounds the days-before cutoff
const MaxDaysBefore = 365

// Engine runs full comparisons over two datasets
type Engine struct {
	logger     *slog.Logger
	classifier *InstitutionClassifier
}

// NewEngine creates an engine. A nil classifier uses the standard table.
func NewEngine(logger *slog.Logger, classifier *InstitutionClassifier) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &Engine{
		logger:     logger.With(slog.String("component", "kpi_engine")),
		classifier: classifier,
	}
}

// Compare computes both snapshots, their deltas and both trend series for
// one comparison context
func (e *Engine) Compare(ctx context.Context, cc domain.ComparisonContext) (*domain.ComparisonResult, error) {
	if cc.A.Dataset == nil || cc.B.Dataset == nil {
		return nil, apperrors.NewAppValidationError("both datasets are required for a comparison")
	}

	rangeA, okA := cc.A.Dataset.DateRange()
	rangeB, okB := cc.B.Dataset.DateRange()
	if !okA || !okB {
		return nil, apperrors.NewAppValidationError("dataset has no dated rows")
	}

	overlap := DescribeOverlap(rangeA, rangeB)

	cutoffA, cutoffB, err := ResolveCutoffs(cc, rangeA, rangeB, overlap)
	if err != nil {
		return nil, err
	}
	overlap.DayFromStartA = DaysBefore(cutoffA, truncateDay(rangeA.Min))
	overlap.DayFromStartB = DaysBefore(cutoffB, truncateDay(rangeB.Min))

	snapA := ComputeWith(e.classifier, cc.A.Dataset, cutoffA, cc.Filters)
	snapB := ComputeWith(e.classifier, cc.B.Dataset, cutoffB, cc.Filters)

	trendA, trendB, err := BuildTrends(cc, cutoffA, cutoffB)
	if err != nil {
		return nil, err
	}

	e.logger.DebugContext(ctx, "comparison computed",
		slog.Int("year_a", cc.A.Label),
		slog.Int("year_b", cc.B.Label),
		slog.String("cutoff_mode", string(cc.Cutoff.Mode)),
		slog.Time("cutoff_a", cutoffA),
		slog.Time("cutoff_b", cutoffB),
		slog.Bool("overlaps", overlap.Overlaps),
		slog.String("job", cc.Filters.JobClassification),
		slog.String("institution_type", string(cc.Filters.InstitutionType)))

	return &domain.ComparisonResult{
		LabelA:    cc.A.Label,
		LabelB:    cc.B.Label,
		CutoffA:   cutoffA,
		CutoffB:   cutoffB,
		SnapshotA: snapA,
		SnapshotB: snapB,
		Deltas:    Deltas(snapA, snapB),
		TrendA:    trendA,
		TrendB:    trendB,
		RangeA:    rangeA,
		RangeB:    rangeB,
		Overlap:   overlap,
		Filters:   cc.Filters,
	}, nil
}

// DescribeOverlap reports the shared window of two date ranges, by day
func DescribeOverlap(a, b domain.DateRange) domain.RangeOverlap {
	start := laterOf(truncateDay(a.Min), truncateDay(b.Min))
	end := earlierOf(truncateDay(a.Max), truncateDay(b.Max))
	if start.After(end) {
		return domain.RangeOverlap{}
	}
	return domain.RangeOverlap{Overlaps: true, WindowStart: &start, WindowEnd: &end}
}

// ResolveCutoffs returns the cutoff instant of each side. Absolute cutoffs
// are midnight of the chosen date. Without a chosen date the overlap window
// end is used, or each side's last registration day when the ranges are
// disjoint. Days-before cutoffs subtract the offset from each reference date.
func ResolveCutoffs(cc domain.ComparisonContext, rangeA, rangeB domain.DateRange, overlap domain.RangeOverlap) (time.Time, time.Time, error) {
	policy := cc.Cutoff
	switch policy.Mode {
	case domain.CutoffAbsolute, "":
		a := absoluteCutoff(policy.DateA, policy.Date, rangeA, overlap)
		b := absoluteCutoff(policy.DateB, policy.Date, rangeB, overlap)
		return a, b, nil

	case domain.CutoffDaysBefore:
		if policy.DaysBefore < 1 || policy.DaysBefore > MaxDaysBefore {
			return time.Time{}, time.Time{}, apperrors.NewAppValidationError("days before must be between 1 and 365").
				WithContext("days_before", policy.DaysBefore)
		}
		if cc.A.ReferenceDate == nil || cc.B.ReferenceDate == nil {
			return time.Time{}, time.Time{}, apperrors.NewAppValidationError("days-before cutoff requires a reference date for both years")
		}
		offset := time.Duration(policy.DaysBefore) * 24 * time.Hour
		return truncateDay(*cc.A.ReferenceDate).Add(-offset), truncateDay(*cc.B.ReferenceDate).Add(-offset), nil

	default:
		return time.Time{}, time.Time{}, apperrors.NewAppValidationError("unknown cutoff mode").
			WithContext("mode", string(policy.Mode))
	}
}

func absoluteCutoff(override *time.Time, shared time.Time, r domain.DateRange, overlap domain.RangeOverlap) time.Time {
	switch {
	case override != nil:
		return truncateDay(*override)
	case !shared.IsZero():
		return truncateDay(shared)
	case overlap.Overlaps:
		return *overlap.WindowEnd
	default:
		return truncateDay(r.Max)
	}
}

// JobClassifications lists the distinct job classifications across the
// given datasets, sorted
func JobClassifications(datasets ...*domain.Dataset) []string {
	seen := make(map[string]struct{})
	for _, ds := range datasets {
		for _, v := range ds.DistinctValues(domain.FieldJobClassification) {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
