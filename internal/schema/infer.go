package schema

import (
	"errors"
	"fmt"
	"io"

	"csvload/internal/source"
)

// Column is one entry of the final schema: a header field and its frozen
// inference state.
type Column struct {
	Field string
	State ColumnState
}

// Schema is the ordered result of a full inference scan. It is immutable
// once returned by Infer; table creation and loading both consume it as-is.
type Schema struct {
	Columns []Column

	// RowCount is the number of data rows seen during the scan. The loader
	// uses it for progress display only.
	RowCount int64

	byField map[string]int
}

// Lookup returns the state for a field and whether the field is part of the
// schema.
func (s *Schema) Lookup(field string) (ColumnState, bool) {
	i, ok := s.byField[field]
	if !ok {
		return ColumnState{}, false
	}
	return s.Columns[i].State, true
}

// Fields returns the schema's field names in order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Field
	}
	return out
}

// Infer scans the full source once and produces the final schema for every
// non-excluded header field. Every column starts at the integer default and
// is promoted per the lattice; empty values never influence a column.
//
// Malformed field values never abort the scan: a value that parses as
// nothing simply lands in the text branch. Duplicate header names are not
// rejected; they share one schema slot.
func Infer(src source.Source, exclude map[string]bool) (*Schema, error) {
	rows, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	header := rows.Header()
	sch := &Schema{byField: make(map[string]int)}

	// Maps header positions to schema slots; excluded fields stay -1.
	slots := make([]int, len(header))
	for i, field := range header {
		slots[i] = -1
		if field == "" || exclude[field] {
			continue
		}
		if j, dup := sch.byField[field]; dup {
			slots[i] = j
			continue
		}
		sch.byField[field] = len(sch.Columns)
		slots[i] = len(sch.Columns)
		sch.Columns = append(sch.Columns, Column{Field: field})
	}
	if len(sch.Columns) == 0 {
		return nil, fmt.Errorf("no usable columns after exclusions")
	}

	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scanning input: %w", err)
		}
		sch.RowCount++
		for i, slot := range slots {
			if slot < 0 || i >= len(row) {
				continue
			}
			sch.Columns[slot].State.Observe(row[i])
		}
	}

	return sch, nil
}
