package domain

import "time"

// ISODateTime is the layout of timestamps in the persisted blob
const ISODateTime = "2006-01-02T15:04:05.999999999"

// ISODate is the layout of reference dates in the persisted blob
const ISODate = "2006-01-02"

// PersistedState is the single comparison blob kept by a blob store.
// Datasets are row-oriented; nil cells are JSON null.
type PersistedState struct {
	Dataset1       []map[string]*string `json:"df1"`
	Dataset2       []map[string]*string `json:"df2"`
	Columns1       []string             `json:"columns1,omitempty"`
	Columns2       []string             `json:"columns2,omitempty"`
	Year1          *int                 `json:"year1"`
	Year2          *int                 `json:"year2"`
	ReferenceDate1 *string              `json:"reference_date1"`
	ReferenceDate2 *string              `json:"reference_date2"`
	DateColumn1    *string              `json:"date_column1"`
	DateColumn2    *string              `json:"date_column2"`
	Name1          string               `json:"name1,omitempty"`
	Name2          string               `json:"name2,omitempty"`
	SavedAt        time.Time            `json:"saved_at"`
}
