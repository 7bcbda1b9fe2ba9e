// Package dataset holds the in-memory table a session works on.
//
// A [Table] is an immutable snapshot: ordered, uniquely named columns, each with
// exactly Len() values, rows addressed by a dense zero-based index. Row
// operations ([DeleteRow], [EditRow], [Commit]) never modify their input; they
// return a new snapshot that shares unchanged columns with the old one.
package dataset

import (
	"fmt"
	"slices"
)

// Column is a named, typed column as handed to and returned from a Table.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// Table is an immutable snapshot of rows by named columns.
type Table struct {
	names []string
	kinds []Kind
	cols  [][]Value // column-major, never mutated once built
	index map[string]int
	n     int
}

// FromColumns builds a table from columns of equal length and unique names.
func FromColumns(cols ...Column) (*Table, error) {
	t := &Table{
		names: make([]string, len(cols)),
		kinds: make([]Kind, len(cols)),
		cols:  make([][]Value, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, &ParseError{Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		if i > 0 && len(c.Values) != t.n {
			return nil, &ParseError{Reason: fmt.Sprintf("column %q has %d values, want %d", c.Name, len(c.Values), t.n)}
		}
		t.n = len(c.Values)
		t.names[i] = c.Name
		t.kinds[i] = c.Kind
		t.cols[i] = slices.Clone(c.Values)
		t.index[c.Name] = i
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.names) }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return slices.Clone(t.names) }

// Has reports whether the table has a column with this name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Kind returns the value kind of a column.
func (t *Table) Kind(name string) (Kind, bool) {
	i, ok := t.index[name]
	if !ok {
		return 0, false
	}
	return t.kinds[i], true
}

// Kinds returns the column kinds in column order.
func (t *Table) Kinds() []Kind { return slices.Clone(t.kinds) }

// Values returns a copy of a column's values.
func (t *Table) Values(name string) ([]Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(t.cols[i]), true
}

// Column returns a copy of a column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return Column{Name: t.names[i], Kind: t.kinds[i], Values: slices.Clone(t.cols[i])}, true
}

// Cell returns the value at row, column.
func (t *Table) Cell(row int, name string) (Value, error) {
	if err := t.checkIndex(row); err != nil {
		return Value{}, err
	}
	i, ok := t.index[name]
	if !ok {
		return Value{}, &UnknownColumnError{Columns: []string{name}}
	}
	return t.cols[i][row], nil
}

// Row returns the values of one row in column order.
func (t *Table) Row(row int) ([]Value, error) {
	if err := t.checkIndex(row); err != nil {
		return nil, err
	}
	out := make([]Value, len(t.cols))
	for i, col := range t.cols {
		out[i] = col[row]
	}
	return out, nil
}

// Records renders the table as a header and rows of display text.
func (t *Table) Records() (header []string, rows [][]string) {
	header = slices.Clone(t.names)
	rows = make([][]string, t.n)
	for r := range rows {
		rec := make([]string, len(t.cols))
		for c, col := range t.cols {
			rec[c] = col[r].String()
		}
		rows[r] = rec
	}
	return header, rows
}

// Equal reports whether both tables have the same columns, kinds and values.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.n != o.n || !slices.Equal(t.names, o.names) || !slices.Equal(t.kinds, o.kinds) {
		return false
	}
	for c := range t.cols {
		for r := range t.cols[c] {
			if !t.cols[c][r].Equal(o.cols[c][r]) {
				return false
			}
		}
	}
	return true
}

func (t *Table) checkIndex(row int) error {
	if row < 0 || row >= t.n {
		return &IndexOutOfRangeError{Index: row, Len: t.n}
	}
	return nil
}

// derive returns a table sharing t's schema and column slices. Callers replace
// the columns they change with fresh slices.
func (t *Table) derive() *Table {
	return &Table{
		names: t.names,
		kinds: t.kinds,
		cols:  slices.Clone(t.cols),
		index: t.index,
		n:     t.n,
	}
}
