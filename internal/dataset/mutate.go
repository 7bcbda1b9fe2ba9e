package dataset

import (
	"slices"
	"sort"
)

// DeleteRow returns a copy of t without row index. Rows after it move up by one.
func DeleteRow(t *Table, index int) (*Table, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}

	out := t.derive()
	for c, col := range t.cols {
		next := make([]Value, 0, len(col)-1)
		next = append(next, col[:index]...)
		next = append(next, col[index+1:]...)
		out.cols[c] = next
	}
	out.n = t.n - 1
	return out, nil
}

// EditRow returns a copy of t with the named cells of one row replaced.
//
// Each raw string is coerced into its column's kind. The edit is all or
// nothing: the first failing column, in table column order, is reported and no
// cell is changed.
func EditRow(t *Table, index int, edits map[string]string) (*Table, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}

	var unknown []string
	for name := range edits {
		if !t.Has(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownColumnError{Columns: unknown}
	}

	type change struct {
		col int
		val Value
	}
	changes := make([]change, 0, len(edits))
	for c, name := range t.names {
		raw, ok := edits[name]
		if !ok {
			continue
		}
		v, err := Coerce(raw, t.kinds[c])
		if err != nil {
			return nil, &CoercionError{Column: name, Value: raw, Kind: t.kinds[c], Err: err}
		}
		changes = append(changes, change{col: c, val: v})
	}

	out := t.derive()
	for _, ch := range changes {
		col := slices.Clone(t.cols[ch.col])
		col[index] = ch.val
		out.cols[ch.col] = col
	}
	return out, nil
}
