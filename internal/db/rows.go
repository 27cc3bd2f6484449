package db

import (
	"bytes"
	"encoding/json"
)

// Row is one result row with its column order preserved. JSON marshaling
// emits fields in column order so serialized result sets are stable across
// runs — the formatter feeds this JSON to the LLM and idempotence depends
// on a canonical field order.
type Row struct {
	columns []string
	values  map[string]any
}

// NewRow builds a Row from parallel column and value slices. Extra values
// are ignored; missing values are nil.
func NewRow(columns []string, values []any) Row {
	m := make(map[string]any, len(columns))
	for i, col := range columns {
		if i < len(values) {
			m[col] = values[i]
		} else {
			m[col] = nil
		}
	}
	return Row{columns: columns, values: m}
}

// Columns returns the column names in result-set order.
func (r Row) Columns() []string {
	return r.columns
}

// Get returns the value for a column, nil if absent.
func (r Row) Get(name string) any {
	return r.values[name]
}

// MarshalJSON emits the row as an object with fields in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
