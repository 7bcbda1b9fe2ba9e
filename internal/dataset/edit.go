package dataset

import "maps"

// EditBuffer collects proposed raw values for one row of one snapshot.
// Nothing reaches the table until Commit, which validates and applies the
// whole buffer in one step.
type EditBuffer struct {
	base   *Table
	row    int
	edits  map[string]string
	closed bool
}

// NewEditBuffer opens an empty buffer on row index of t.
func NewEditBuffer(t *Table, index int) (*EditBuffer, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}
	return &EditBuffer{base: t, row: index, edits: make(map[string]string)}, nil
}

// Row returns the target row index.
func (b *EditBuffer) Row() int { return b.row }

// Current returns the cell as it stands in the snapshot the buffer was opened
// on, rendered as text for pre-filling an input.
func (b *EditBuffer) Current(column string) (string, error) {
	v, err := b.base.Cell(b.row, column)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Set proposes a raw value for column. Unknown columns are reported at Commit.
func (b *EditBuffer) Set(column, raw string) {
	b.edits[column] = raw
}

// Edits returns a copy of the proposed values.
func (b *EditBuffer) Edits() map[string]string {
	return maps.Clone(b.edits)
}

// Len returns the number of proposed values.
func (b *EditBuffer) Len() int { return len(b.edits) }

// Discard abandons the buffer.
func (b *EditBuffer) Discard() {
	b.closed = true
	b.edits = nil
}

// Commit applies the buffer to t, which must be the snapshot the buffer was
// opened on. On success the buffer is closed; on failure it stays open so the
// caller can correct the offending value and retry.
func Commit(t *Table, b *EditBuffer) (*Table, error) {
	if b.closed {
		return nil, ErrEditBufferClosed
	}
	if t != b.base {
		return nil, ErrStaleEditBuffer
	}
	out, err := EditRow(t, b.row, b.edits)
	if err != nil {
		return nil, err
	}
	b.Discard()
	return out, nil
}
