package entities

import "strings"

// Fields is an ordered bag of column name to cell text. It carries the columns
// of a row that the allocation engine does not interpret (batch/case, location,
// supplier notes, ...) so they survive a run verbatim. Column names are
// compared with surrounding whitespace trimmed.
type Fields struct {
	keys   []string
	values map[string]string
}

// NewFields builds a Fields bag from a header and a row of cells. Missing
// trailing cells are treated as empty; surplus cells are dropped.
func NewFields(columns []string, cells []string) Fields {
	f := Fields{
		keys:   make([]string, 0, len(columns)),
		values: make(map[string]string, len(columns)),
	}
	for i, column := range columns {
		value := ""
		if i < len(cells) {
			value = cells[i]
		}
		f.Set(column, value)
	}
	return f
}

// Get returns the value stored under column and whether the column is present
func (f Fields) Get(column string) (string, bool) {
	if f.values == nil {
		return "", false
	}
	v, ok := f.values[normalizeColumn(column)]
	return v, ok
}

// Value returns the value stored under column, or "" when absent
func (f Fields) Value(column string) string {
	v, _ := f.Get(column)
	return v
}

// Set stores value under column, appending the column if it is new
func (f *Fields) Set(column, value string) {
	column = normalizeColumn(column)
	if column == "" {
		return
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[column]; !ok {
		f.keys = append(f.keys, column)
	}
	f.values[column] = value
}

// Delete removes column from the bag
func (f *Fields) Delete(column string) {
	column = normalizeColumn(column)
	if _, ok := f.values[column]; !ok {
		return
	}
	delete(f.values, column)
	for i, key := range f.keys {
		if key == column {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the columns in insertion order
func (f Fields) Keys() []string {
	keys := make([]string, len(f.keys))
	copy(keys, f.keys)
	return keys
}

// Len returns the number of columns in the bag
func (f Fields) Len() int {
	return len(f.keys)
}

// Clone returns an independent copy
func (f Fields) Clone() Fields {
	clone := Fields{
		keys:   make([]string, len(f.keys)),
		values: make(map[string]string, len(f.values)),
	}
	copy(clone.keys, f.keys)
	for k, v := range f.values {
		clone.values[k] = v
	}
	return clone
}

// Row lays the bag out against columns; columns the bag does not hold are empty
func (f Fields) Row(columns []string) []string {
	row := make([]string, len(columns))
	for i, column := range columns {
		row[i] = f.Value(column)
	}
	return row
}

// IsBlank reports whether every value in the bag is empty or whitespace
func (f Fields) IsBlank() bool {
	for _, v := range f.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Has reports whether the bag holds column
func (f Fields) Has(column string) bool {
	_, ok := f.Get(column)
	return ok
}

func normalizeColumn(column string) string {
	return strings.TrimSpace(column)
}
