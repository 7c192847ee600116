package ir

import "fmt"

// Field is one named cell of a Record.
type Field struct {
	Name  string
	Value Value
}

// F is a shorthand for building a Field from a Go scalar.
// Example: NewRecord(F("name", "Bob"), F("count", 4))
func F(name string, value any) Field {
	return Field{Name: name, Value: MustFromGo(value)}
}

// Record is one row. Field order is the column order of the source row.
type Record []Field

// NewRecord creates a Record from fields in column order.
func NewRecord(fields ...Field) Record {
	return Record(fields)
}

// Get returns the value of a column.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Value returns the value of a column, or Missing when absent.
func (r Record) Value(name string) Value {
	if v, ok := r.Get(name); ok {
		return v
	}
	return Missing{}
}

// Columns returns column names in order.
func (r Record) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Name
	}
	return cols
}

// Rows is an ordered sequence of Records sharing one schema.
type Rows []Record

// Columns returns the column names of the first row, or nil when empty.
func (rows Rows) Columns() []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0].Columns()
}

// Column returns the values of one column across all rows.
func (rows Rows) Column(name string) []Value {
	out := make([]Value, len(rows))
	for i, r := range rows {
		out[i] = r.Value(name)
	}
	return out
}

// RowsFromMaps builds Rows from column-ordered maps. The column order is
// taken from cols; every row is read with the same order.
func RowsFromMaps(cols []string, maps []map[string]any) (Rows, error) {
	rows := make(Rows, len(maps))
	for i, m := range maps {
		rec := make(Record, 0, len(cols))
		for _, c := range cols {
			v, err := FromGo(m[c])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, c, err)
			}
			rec = append(rec, Field{Name: c, Value: v})
		}
		rows[i] = rec
	}
	return rows, nil
}
