package domain

import "time"

// CutoffMode selects how the in-scope cutoff is derived
type CutoffMode string

const (
	CutoffAbsolute   CutoffMode = "absolute"
	CutoffDaysBefore CutoffMode = "days_before"
)

// CutoffPolicy is shared by both sides of a comparison. Absolute uses Date
// at midnight. DaysBefore subtracts DaysBefore days from each side's
// reference date. DateA and DateB override Date per side and are used when
// the two date ranges do not overlap.
type CutoffPolicy struct {
	Mode       CutoffMode `json:"mode"`
	Date       time.Time  `json:"date,omitempty"`
	DaysBefore int        `json:"days_before,omitempty"`
	DateA      *time.Time `json:"date_a,omitempty"`
	DateB      *time.Time `json:"date_b,omitempty"`
}

// InstitutionType buckets institutions by job classification
type InstitutionType string

const (
	InstitutionAll             InstitutionType = "All"
	InstitutionHigherEducation InstitutionType = "Higher Education"
	InstitutionK12             InstitutionType = "K-12"
)

// Filters narrows the cutoff-restricted rows. The job filter feeds
// attendee-level KPIs and the institution filter feeds institution-level
// KPIs; they are independent of each other.
type Filters struct {
	JobClassification string          `json:"job_classification,omitempty"`
	InstitutionType   InstitutionType `json:"institution_type,omitempty"`
}

// AxisMode selects the trend axis
type AxisMode string

const (
	AxisCalendar   AxisMode = "calendar"
	AxisDaysBefore AxisMode = "days_before"
)

// Side is one year of a comparison
type Side struct {
	Dataset       *Dataset   `json:"-"`
	Label         int        `json:"year"`
	ReferenceDate *time.Time `json:"reference_date,omitempty"`
}

// Slot identifies a side
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

// ComparisonContext is an immutable description of one comparison run.
// A fresh value is built for every recomputation.
type ComparisonContext struct {
	A       Side
	B       Side
	Cutoff  CutoffPolicy
	Filters Filters
	Axis    AxisMode
}

// Side returns the side for slot
func (c ComparisonContext) Side(slot Slot) Side {
	if slot == SlotB {
		return c.B
	}
	return c.A
}
