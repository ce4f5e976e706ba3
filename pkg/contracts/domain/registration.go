// Package domain holds the data model shared by the engine, the service
// layer and the transports.
package domain

import (
	"sort"
	"time"
)

// Field names an optional semantic column of a registration export
type Field string

const (
	FieldEmail             Field = "email"
	FieldTitle             Field = "title"
	FieldGender            Field = "gender"
	FieldCompany           Field = "company"
	FieldState             Field = "state"
	FieldJobClassification Field = "job_classification"
	FieldRegistrationType  Field = "registration_type"
)

// OptionalFields lists every optional field in a stable order
var OptionalFields = []Field{
	FieldEmail,
	FieldTitle,
	FieldGender,
	FieldCompany,
	FieldState,
	FieldJobClassification,
	FieldRegistrationType,
}

// Capabilities records which optional fields a Dataset carries and the
// source column backing each one. It is resolved once when the dataset is
// parsed and is read-only afterwards.
type Capabilities struct {
	columns map[Field]string
}

// NewCapabilities builds a descriptor from a field to column mapping
func NewCapabilities(columns map[Field]string) Capabilities {
	c := Capabilities{columns: make(map[Field]string, len(columns))}
	for f, col := range columns {
		if col != "" {
			c.columns[f] = col
		}
	}
	return c
}

// Has reports whether the dataset carries f
func (c Capabilities) Has(f Field) bool {
	_, ok := c.columns[f]
	return ok
}

// Column returns the source column for f, or "" when absent
func (c Capabilities) Column(f Field) string {
	return c.columns[f]
}

// Present returns the present fields in OptionalFields order
func (c Capabilities) Present() []Field {
	out := make([]Field, 0, len(c.columns))
	for _, f := range OptionalFields {
		if c.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Map returns a copy of the field to column mapping
func (c Capabilities) Map() map[Field]string {
	out := make(map[Field]string, len(c.columns))
	for f, col := range c.columns {
		out[f] = col
	}
	return out
}

// RegistrationRecord is one row of an uploaded dataset. Empty strings
// stand for null cells.
type RegistrationRecord struct {
	Timestamp         *time.Time `json:"timestamp,omitempty"`
	Email             string     `json:"email,omitempty"`
	Title             string     `json:"title,omitempty"`
	Gender            string     `json:"gender,omitempty"`
	Company           string     `json:"company,omitempty"`
	State             string     `json:"state,omitempty"`
	JobClassification string     `json:"job_classification,omitempty"`
	RegistrationType  string     `json:"registration_type,omitempty"`
}

// Value returns the record's value for an optional field
func (r RegistrationRecord) Value(f Field) string {
	switch f {
	case FieldEmail:
		return r.Email
	case FieldTitle:
		return r.Title
	case FieldGender:
		return r.Gender
	case FieldCompany:
		return r.Company
	case FieldState:
		return r.State
	case FieldJobClassification:
		return r.JobClassification
	case FieldRegistrationType:
		return r.RegistrationType
	}
	return ""
}

// Dataset is an ordered collection of records sharing one resolved date
// column. Columns and Rows keep the raw table for persistence.
type Dataset struct {
	Name         string               `json:"name"`
	DateColumn   string               `json:"date_column"`
	DateLayout   string               `json:"date_layout"`
	Columns      []string             `json:"columns"`
	Rows         [][]string           `json:"-"`
	Records      []RegistrationRecord `json:"-"`
	Capabilities Capabilities         `json:"-"`
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// DateRange summarizes the parsed timestamps of a dataset
type DateRange struct {
	Min  time.Time `json:"min"`
	Max  time.Time `json:"max"`
	Rows int       `json:"rows"`
}

// DateRange returns the earliest and latest timestamps and the number of
// dated rows. ok is false when no row carries a timestamp.
func (d *Dataset) DateRange() (DateRange, bool) {
	var r DateRange
	if d == nil {
		return r, false
	}
	for _, rec := range d.Records {
		if rec.Timestamp == nil {
			continue
		}
		ts := *rec.Timestamp
		if r.Rows == 0 || ts.Before(r.Min) {
			r.Min = ts
		}
		if r.Rows == 0 || ts.After(r.Max) {
			r.Max = ts
		}
		r.Rows++
	}
	return r, r.Rows > 0
}

// DistinctValues returns the sorted distinct non-empty values of f
func (d *Dataset) DistinctValues(f Field) []string {
	if d == nil || !d.Capabilities.Has(f) {
		return nil
	}
	seen := make(map[string]struct{})
	for _, rec := range d.Records {
		if v := rec.Value(f); v != "" {
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
