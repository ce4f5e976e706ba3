// Package api contains the HTTP contract of the comparison service.
// Version v1 is the current API version.
package api

import (
	"time"

	"eventkpi/pkg/contracts/domain"
)

// DatasetUploadRequest carries the form fields sent with an upload
type DatasetUploadRequest struct {
	Slot          string `json:"slot" param:"slot" validate:"required,oneof=a b"`
	Year          int    `json:"year" form:"year" validate:"required,year"`
	ReferenceDate string `json:"reference_date,omitempty" form:"reference_date" validate:"omitempty,isodate"`
}

// DatasetUpdateRequest relabels a loaded dataset without re-uploading it
type DatasetUpdateRequest struct {
	Year          int    `json:"year" validate:"required,year"`
	ReferenceDate string `json:"reference_date,omitempty" validate:"omitempty,isodate"`
}

// ComparisonRequest holds the comparison parameters. Empty fields take
// the engine defaults.
type ComparisonRequest struct {
	CutoffMode        string `json:"cutoff_mode,omitempty" validate:"omitempty,oneof=absolute days_before"`
	CutoffDate        string `json:"cutoff_date,omitempty" validate:"omitempty,isodate"`
	CutoffDateA       string `json:"cutoff_date_a,omitempty" validate:"omitempty,isodate"`
	CutoffDateB       string `json:"cutoff_date_b,omitempty" validate:"omitempty,isodate"`
	DaysBefore        int    `json:"days_before,omitempty" validate:"omitempty,min=1,max=365"`
	JobClassification string `json:"job_classification,omitempty" validate:"omitempty,max=200"`
	InstitutionType   string `json:"institution_type,omitempty" validate:"omitempty,oneof=All 'Higher Education' K-12"`
	Axis              string `json:"axis,omitempty" validate:"omitempty,oneof=calendar days_before"`
}

// ExportRequest selects the summary export format
type ExportRequest struct {
	Format string `json:"format" query:"format" validate:"required,oneof=csv xlsx"`
}

// ToPolicy converts the request into engine parameters. Dates are
// validated before this is called.
func (r ComparisonRequest) ToPolicy() (domain.CutoffPolicy, domain.Filters, domain.AxisMode) {
	policy := domain.CutoffPolicy{
		Mode:       domain.CutoffMode(r.CutoffMode),
		DaysBefore: r.DaysBefore,
	}
	if policy.Mode == "" {
		policy.Mode = domain.CutoffAbsolute
	}
	if t := ParseDate(r.CutoffDate); t != nil {
		policy.Date = *t
	}
	policy.DateA = ParseDate(r.CutoffDateA)
	policy.DateB = ParseDate(r.CutoffDateB)

	filters := domain.Filters{
		JobClassification: r.JobClassification,
		InstitutionType:   domain.InstitutionType(r.InstitutionType),
	}

	axis := domain.AxisMode(r.Axis)
	if axis == "" {
		axis = domain.AxisCalendar
	}
	return policy, filters, axis
}

// ParseDate parses an ISO date, returning nil for empty or invalid input
func ParseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(domain.ISODate, s)
	if err != nil {
		return nil
	}
	return &t
}
