package entities

import (
	"fmt"
	"strconv"
)

// Table is one named tabular section of a dataset: a header and rows of cell
// text. Rows may be ragged; a short row reads as empty for its missing cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// NewTable creates an empty table with the given header
func NewTable(name string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols, Rows: [][]string{}}
}

// ColumnIndex returns the position of column in the header, or -1. Header
// names are compared after trimming surrounding whitespace.
func (t *Table) ColumnIndex(column string) int {
	want := normalizeColumn(column)
	for i, c := range t.Columns {
		if normalizeColumn(c) == want {
			return i
		}
	}
	return -1
}

// WithUniqueColumns returns a view of the table whose header names every
// column distinctly, so each cell keys its own entry in a Fields bag. A blank
// name becomes "Unnamed: <position>" and a repeated name gains a ".1", ".2"
// suffix. Rows are shared with t.
func (t *Table) WithUniqueColumns() *Table {
	return &Table{Name: t.Name, Columns: UniqueColumns(t.Columns), Rows: t.Rows}
}

// UniqueColumns renames blank and repeated header names as WithUniqueColumns
// does. Names already distinct are returned unchanged.
func UniqueColumns(columns []string) []string {
	out := make([]string, len(columns))
	taken := make(map[string]bool, len(columns))
	for i, column := range columns {
		name := normalizeColumn(column)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		} else if !taken[name] {
			// keep the original spelling, surrounding whitespace included
			taken[name] = true
			out[i] = column
			continue
		}
		candidate := name
		for n := 1; taken[candidate]; n++ {
			candidate = name + "." + strconv.Itoa(n)
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

// HasColumn reports whether the header holds column
func (t *Table) HasColumn(column string) bool {
	return t.ColumnIndex(column) >= 0
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Record returns data row i as a Fields bag keyed by the header
func (t *Table) Record(i int) Fields {
	return NewFields(t.Columns, t.Rows[i])
}

// Append adds a row laid out against the header
func (t *Table) Append(fields Fields) {
	t.Rows = append(t.Rows, fields.Row(t.Columns))
}

// Emptied returns a copy of the table with the same header and no rows
func (t *Table) Emptied() *Table {
	return NewTable(t.Name, t.Columns)
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	clone := NewTable(t.Name, t.Columns)
	clone.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		clone.Rows[i] = append([]string(nil), row...)
	}
	return clone
}

// Dataset is an ordered set of named tables loaded from one artifact. It is
// the in-memory tabular store the allocation run reads from and writes to.
type Dataset struct {
	order  []string
	tables map[string]*Table
}

// NewDataset builds a dataset from tables, keeping their order
func NewDataset(tables ...*Table) *Dataset {
	ds := &Dataset{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		ds.ReplaceTable(t.Name, t)
	}
	return ds
}

// TableNames returns the table names in artifact order
func (d *Dataset) TableNames() []string {
	names := make([]string, len(d.order))
	copy(names, d.order)
	return names
}

// ReadTable returns the named table
func (d *Dataset) ReadTable(name string) (*Table, error) {
	t, ok := d.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, ErrTableNotFound)
	}
	return t, nil
}

// ReplaceTable swaps the named table's contents, adding it at the end when new
func (d *Dataset) ReplaceTable(name string, table *Table) {
	if d.tables == nil {
		d.tables = make(map[string]*Table)
	}
	if _, ok := d.tables[name]; !ok {
		d.order = append(d.order, name)
	}
	table.Name = name
	d.tables[name] = table
}

// Has reports whether the dataset holds the named table
func (d *Dataset) Has(name string) bool {
	_, ok := d.tables[name]
	return ok
}

// Missing returns the subset of names the dataset does not hold, in the
// order given
func (d *Dataset) Missing(names ...string) []string {
	var missing []string
	for _, name := range names {
		if !d.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Clone returns a deep copy of the dataset
func (d *Dataset) Clone() *Dataset {
	clone := &Dataset{tables: make(map[string]*Table, len(d.tables))}
	for _, name := range d.order {
		clone.ReplaceTable(name, d.tables[name].Clone())
	}
	return clone
}
