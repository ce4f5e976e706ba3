package dataprocessing

import (
	apperrors "eventkpi/internal/errors"
	"eventkpi/pkg/contracts/domain"
)

// DateColumnCandidates is the priority order for the registration date
// column. Timezone-qualified export names come first, generic names last.
var DateColumnCandidates = []string{
	"Last Registration Date (GMT)",
	"Last Registration Date (GMT-05:00) Eastern [US & Canada]",
	"Original Response Date (GMT)",
	"Original Response Date (GMT-05:00) Eastern [US & Canada]",
	"Registration Date",
	"Date",
	"Created Date",
	"Registered Date",
	"Registration_Date",
	"registration_date",
	"Created",
	"Timestamp",
}

// FieldColumnCandidates maps each optional field to its accepted column
// names, in priority order.
var FieldColumnCandidates = map[domain.Field][]string{
	domain.FieldEmail:             {"Email Address", "Email"},
	domain.FieldTitle:             {"Title", "Job Title"},
	domain.FieldGender:            {"My Gender is:", "Gender"},
	domain.FieldCompany:           {"Company Name"},
	domain.FieldState:             {"Primary State/Prov. Code"},
	domain.FieldJobClassification: {"Job Classification"},
	domain.FieldRegistrationType:  {"Registration Type"},
}

// ResolveDateColumn returns the first candidate present in columns.
// There is no fuzzy matching.
func ResolveDateColumn(columns []string, candidates []string) (string, error) {
	present := columnSet(columns)
	if col, ok := firstPresent(present, candidates); ok {
		return col, nil
	}
	return "", apperrors.NewColumnNotFoundError(candidates)
}

// ResolveCapabilities probes every optional field once
func ResolveCapabilities(columns []string) domain.Capabilities {
	present := columnSet(columns)
	resolved := make(map[domain.Field]string, len(FieldColumnCandidates))
	for field, candidates := range FieldColumnCandidates {
		if col, ok := firstPresent(present, candidates); ok {
			resolved[field] = col
		}
	}
	return domain.NewCapabilities(resolved)
}

// columnSet indexes normalized header names to their original spelling
func columnSet(columns []string) map[string]string {
	set := make(map[string]string, len(columns))
	for _, c := range columns {
		key := NormalizeHeader(c)
		if _, dup := set[key]; !dup {
			set[key] = c
		}
	}
	return set
}

func firstPresent(present map[string]string, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if original, ok := present[NormalizeHeader(candidate)]; ok {
			return original, true
		}
	}
	return "", false
}
