package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	apperrors "eventkpi/internal/errors"
	"eventkpi/pkg/contracts/domain"
)

// TableLoader rebuilds a dataset from raw rows
type TableLoader interface {
	LoadTableWithDateColumn(ctx context.Context, name, dateColumn string, header []string, rows [][]string) (*domain.Dataset, error)
}

// EncodeState serializes both sides into the persisted blob. Date column
// cells are written as ISO-8601 timestamps and empty cells as null.
func EncodeState(a, b domain.Side, savedAt time.Time) ([]byte, error) {
	state := domain.PersistedState{
		Dataset1:       encodeRows(a.Dataset),
		Dataset2:       encodeRows(b.Dataset),
		Year1:          labelPtr(a),
		Year2:          labelPtr(b),
		ReferenceDate1: datePtr(a.ReferenceDate),
		ReferenceDate2: datePtr(b.ReferenceDate),
		SavedAt:        savedAt.UTC(),
	}
	if a.Dataset != nil {
		state.Columns1 = a.Dataset.Columns
		state.DateColumn1 = &a.Dataset.DateColumn
		state.Name1 = a.Dataset.Name
	}
	if b.Dataset != nil {
		state.Columns2 = b.Dataset.Columns
		state.DateColumn2 = &b.Dataset.DateColumn
		state.Name2 = b.Dataset.Name
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// DecodeState parses a persisted blob and reloads both datasets through
// loader. A side without rows comes back with a nil dataset.
func DecodeState(ctx context.Context, data []byte, loader TableLoader) (domain.Side, domain.Side, time.Time, error) {
	var state domain.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.Side{}, domain.Side{}, time.Time{}, apperrors.NewParsingError("persisted state is not valid JSON", err)
	}

	a, err := decodeSide(ctx, loader, "dataset_a", state.Name1, state.Dataset1, state.Columns1, state.DateColumn1, state.Year1, state.ReferenceDate1)
	if err != nil {
		return domain.Side{}, domain.Side{}, time.Time{}, err
	}
	b, err := decodeSide(ctx, loader, "dataset_b", state.Name2, state.Dataset2, state.Columns2, state.DateColumn2, state.Year2, state.ReferenceDate2)
	if err != nil {
		return domain.Side{}, domain.Side{}, time.Time{}, err
	}
	return a, b, state.SavedAt, nil
}

func encodeRows(ds *domain.Dataset) []map[string]*string {
	if ds == nil {
		return []map[string]*string{}
	}

	dateIdx := -1
	for i, c := range ds.Columns {
		if c == ds.DateColumn {
			dateIdx = i
			break
		}
	}

	out := make([]map[string]*string, len(ds.Rows))
	for i, row := range ds.Rows {
		m := make(map[string]*string, len(ds.Columns))
		for j, col := range ds.Columns {
			var cell *string
			switch {
			case j == dateIdx && i < len(ds.Records):
				if ts := ds.Records[i].Timestamp; ts != nil {
					v := ts.Format(domain.ISODateTime)
					cell = &v
				}
			case j < len(row) && row[j] != "":
				v := row[j]
				cell = &v
			}
			m[col] = cell
		}
		out[i] = m
	}
	return out
}

func decodeSide(ctx context.Context, loader TableLoader, fallbackName, name string, rows []map[string]*string, columns []string, dateColumn *string, year *int, ref *string) (domain.Side, error) {
	side := domain.Side{}
	if year != nil {
		side.Label = *year
	}
	if ref != nil && *ref != "" {
		t, err := time.Parse(domain.ISODate, *ref)
		if err != nil {
			return side, apperrors.NewParsingError("invalid persisted reference date", err).
				WithContext("value", *ref)
		}
		side.ReferenceDate = &t
	}

	if len(rows) == 0 {
		return side, nil
	}

	if len(columns) == 0 {
		columns = sortedKeys(rows[0])
	}
	raw := make([][]string, len(rows))
	for i, m := range rows {
		raw[i] = make([]string, len(columns))
		for j, col := range columns {
			if v := m[col]; v != nil {
				raw[i][j] = *v
			}
		}
	}

	if name == "" {
		name = fallbackName
	}
	preferred := ""
	if dateColumn != nil {
		preferred = *dateColumn
	}

	ds, err := loader.LoadTableWithDateColumn(ctx, name, preferred, columns, raw)
	if err != nil {
		return side, err
	}
	side.Dataset = ds
	return side, nil
}

func sortedKeys(m map[string]*string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelPtr(s domain.Side) *int {
	if s.Dataset == nil && s.Label == 0 {
		return nil
	}
	v := s.Label
	return &v
}

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(domain.ISODate)
	return &v
}
