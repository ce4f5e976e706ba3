package api

import (
	"time"

	"eventkpi/pkg/contracts/domain"
)

// DatasetSummary describes one loaded dataset
type DatasetSummary struct {
	Slot          domain.Slot       `json:"slot"`
	Name          string            `json:"name"`
	Year          int               `json:"year"`
	ReferenceDate *string           `json:"reference_date"`
	Rows          int               `json:"rows"`
	DateColumn    string            `json:"date_column"`
	DateLayout    string            `json:"date_layout"`
	Columns       []string          `json:"columns"`
	Fields        map[string]string `json:"fields"`
	Range         *domain.DateRange `json:"range,omitempty"`
}

// DatasetListResponse lists the loaded datasets in slot order
type DatasetListResponse struct {
	Datasets []DatasetSummary `json:"datasets"`
}

// ComparisonResponse wraps a comparison result
type ComparisonResponse struct {
	*domain.ComparisonResult
	ComputedAt time.Time `json:"computed_at"`
}

// JobClassificationsResponse lists the values usable as a job filter
type JobClassificationsResponse struct {
	JobClassifications []string `json:"job_classifications"`
}

// SessionResponse reports a save or load of the persisted state
type SessionResponse struct {
	Key      string           `json:"key"`
	Backend  string           `json:"backend"`
	SavedAt  time.Time        `json:"saved_at"`
	Datasets []DatasetSummary `json:"datasets,omitempty"`
}

// NewDatasetSummary builds the summary of side in slot
func NewDatasetSummary(slot domain.Slot, side domain.Side) DatasetSummary {
	s := DatasetSummary{Slot: slot, Year: side.Label, Fields: map[string]string{}}
	if side.ReferenceDate != nil {
		v := side.ReferenceDate.Format(domain.ISODate)
		s.ReferenceDate = &v
	}
	ds := side.Dataset
	if ds == nil {
		return s
	}

	s.Name = ds.Name
	s.Rows = ds.Len()
	s.DateColumn = ds.DateColumn
	s.DateLayout = ds.DateLayout
	s.Columns = ds.Columns
	for field, col := range ds.Capabilities.Map() {
		s.Fields[string(field)] = col
	}
	if r, ok := ds.DateRange(); ok {
		s.Range = &r
	}
	return s
}
