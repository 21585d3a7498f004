package models

import "time"

// RawActivity is one activity object as decoded from the API. Numbers are
// json.Number values.
type RawActivity map[string]interface{}

// Presence is the result of a tri-state field lookup.
type Presence int

const (
	Absent Presence = iota
	Null
	Present
)

// Lookup returns the value stored under key and whether it was absent,
// present as JSON null, or present with a value.
func (r RawActivity) Lookup(key string) (interface{}, Presence) {
	v, ok := r[key]
	if !ok {
		return nil, Absent
	}
	if v == nil {
		return nil, Null
	}
	return v, Present
}

// Record is a normalized activity: exactly the registry's columns, nil for null.
type Record map[string]interface{}

// Batch is the set of activities extracted by one run, in feed order.
type Batch struct {
	Records []Record
	Raw     []RawActivity
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

// Add appends a normalized record with the payload it came from.
func (b *Batch) Add(rec Record, raw RawActivity) {
	b.Records = append(b.Records, rec)
	b.Raw = append(b.Raw, raw)
}

// Table is a cleaned batch ready for bulk load.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]interface{}
}

// ColumnNames returns the table's column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row for the named column.
func (t *Table) Value(row int, name string) (interface{}, bool) {
	i := t.Index(name)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return nil, false
	}
	return t.Rows[row][i], true
}

// RunCompleted describes a run whose load and watermark write both succeeded.
type RunCompleted struct {
	RunID      string    `json:"run_id"`
	RowsLoaded int64     `json:"rows_loaded"`
	Watermark  time.Time `json:"watermark"`
	FinishedAt time.Time `json:"finished_at"`
}
