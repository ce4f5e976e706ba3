package domain

import (
	"encoding/json"
	"time"
)

// KpiName is the display name of one KPI
type KpiName string

const (
	KpiAttendees         KpiName = "Attendees"
	KpiSeniorLeaders     KpiName = "Senior Leaders"
	KpiWomenLeaders      KpiName = "Women Leaders"
	KpiInstitutions      KpiName = "Institutions"
	KpiCommunityColleges KpiName = "Community Colleges"
	KpiAllColleges       KpiName = "All Colleges"
	KpiUSStates          KpiName = "U.S. States"
	KpiStartups          KpiName = "Startups"
	KpiRegions           KpiName = "Regions (States/Provinces)"
)

// KpiOrder is the display order of a snapshot
var KpiOrder = []KpiName{
	KpiAttendees,
	KpiSeniorLeaders,
	KpiWomenLeaders,
	KpiInstitutions,
	KpiCommunityColleges,
	KpiAllColleges,
	KpiUSStates,
	KpiStartups,
	KpiRegions,
}

// KpiEntry is one named count
type KpiEntry struct {
	Name  KpiName `json:"name"`
	Value int     `json:"value"`
}

// KpiSnapshot is an ordered, immutable name to count mapping
type KpiSnapshot struct {
	entries []KpiEntry
}

// NewKpiSnapshot copies entries into a snapshot
func NewKpiSnapshot(entries []KpiEntry) KpiSnapshot {
	out := make([]KpiEntry, len(entries))
	copy(out, entries)
	return KpiSnapshot{entries: out}
}

// Get returns the count for name
func (s KpiSnapshot) Get(name KpiName) (int, bool) {
	for _, e := range s.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return 0, false
}

// Value returns the count for name, or zero
func (s KpiSnapshot) Value(name KpiName) int {
	v, _ := s.Get(name)
	return v
}

// Entries returns a copy of the ordered entries
func (s KpiSnapshot) Entries() []KpiEntry {
	out := make([]KpiEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of KPIs
func (s KpiSnapshot) Len() int {
	return len(s.entries)
}

// MarshalJSON encodes the snapshot as an ordered array
func (s KpiSnapshot) MarshalJSON() ([]byte, error) {
	if s.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.entries)
}

// UnmarshalJSON decodes an ordered array of entries
func (s *KpiSnapshot) UnmarshalJSON(data []byte) error {
	var entries []KpiEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	s.entries = entries
	return nil
}

// KpiDelta pairs the two values of one KPI for display
type KpiDelta struct {
	Name      KpiName `json:"name"`
	A         int     `json:"a"`
	B         int     `json:"b"`
	ChangePct float64 `json:"change_pct"`
}

// TrendPoint is one cumulative step. Exactly one of Date and DaysBefore is
// set, matching the series axis.
type TrendPoint struct {
	Date       *time.Time `json:"date,omitempty"`
	DaysBefore *int       `json:"days_before,omitempty"`
	Count      int        `json:"count"`
	Cumulative int        `json:"cumulative"`
}

// TrendSeries is a cumulative registration curve for one side
type TrendSeries struct {
	Label  int          `json:"year"`
	Axis   AxisMode     `json:"axis"`
	Points []TrendPoint `json:"points"`
}

// Total returns the final cumulative count
func (s TrendSeries) Total() int {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Cumulative
}

// RangeOverlap describes how the two date ranges relate. When they overlap
// the shared window bounds the selectable cutoff. When they don't, each
// side is compared at its own cutoff and DayFromStart reports the offset
// from that side's first registration.
type RangeOverlap struct {
	Overlaps      bool       `json:"overlaps"`
	WindowStart   *time.Time `json:"window_start,omitempty"`
	WindowEnd     *time.Time `json:"window_end,omitempty"`
	DayFromStartA int        `json:"day_from_start_a"`
	DayFromStartB int        `json:"day_from_start_b"`
}

// ComparisonResult is everything the presentation layer renders
type ComparisonResult struct {
	LabelA    int          `json:"year_a"`
	LabelB    int          `json:"year_b"`
	CutoffA   time.Time    `json:"cutoff_a"`
	CutoffB   time.Time    `json:"cutoff_b"`
	SnapshotA KpiSnapshot  `json:"snapshot_a"`
	SnapshotB KpiSnapshot  `json:"snapshot_b"`
	Deltas    []KpiDelta   `json:"deltas"`
	TrendA    TrendSeries  `json:"trend_a"`
	TrendB    TrendSeries  `json:"trend_b"`
	RangeA    DateRange    `json:"range_a"`
	RangeB    DateRange    `json:"range_b"`
	Overlap   RangeOverlap `json:"overlap"`
	Filters   Filters      `json:"filters"`
}
