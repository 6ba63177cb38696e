package roster

import (
	"time"

	"github.com/edscope/edscope/internal/domain/shared"
)

// Table is an immutable, ordered collection of roster records. Queries
// never mutate it; a reload swaps the whole table atomically.
type Table struct {
	records  []Record
	source   string
	loadedAt time.Time
}

// NewTable builds a table over the given records. The slice is copied
// so later mutation of the argument cannot leak in.
func NewTable(records []Record, source string, loadedAt time.Time) (*Table, error) {
	if len(records) == 0 {
		return nil, shared.ErrNoUsableRows
	}
	copied := make([]Record, len(records))
	copy(copied, records)
	return &Table{records: copied, source: source, loadedAt: loadedAt}, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// At returns the record at position i in dataset order.
func (t *Table) At(i int) Record {
	return t.records[i]
}

// Records returns a copy of all records in dataset order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Source identifies where the table was loaded from (file path, DSN alias).
func (t *Table) Source() string {
	return t.source
}

// LoadedAt returns when the table snapshot was taken.
func (t *Table) LoadedAt() time.Time {
	return t.loadedAt
}

// RowWarning records a dataset row that was skipped during load.
type RowWarning struct {
	Row    int    // 1-based data row number, header excluded
	Reason string
}

// LoadResult is what a Source produces: the usable table plus warnings
// for every row that had to be dropped.
type LoadResult struct {
	Table    *Table
	Warnings []RowWarning
}
