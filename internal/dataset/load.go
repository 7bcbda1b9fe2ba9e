package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Load builds a table from a header and raw records.
//
// Records shorter than the header are padded with nulls; longer ones are a
// ParseError. Empty header names become "Unnamed: <i>" and repeated names get
// ".1", ".2", ... suffixes. Each column's kind is inferred from its cells.
func Load(header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, &ParseError{Err: ErrEmptyFile}
	}

	names := uniqueHeader(header)
	width := len(names)

	raw := make([][]string, width)
	for c := range raw {
		raw[c] = make([]string, len(records))
	}
	for r, rec := range records {
		if len(rec) > width {
			return nil, &ParseError{
				Record: r + 2,
				Reason: fmt.Sprintf("expected %d fields, saw %d", width, len(rec)),
			}
		}
		for c, cell := range rec {
			raw[c][r] = cell
		}
	}

	t := &Table{
		names: names,
		kinds: make([]Kind, width),
		cols:  make([][]Value, width),
		index: make(map[string]int, width),
		n:     len(records),
	}
	for c, cells := range raw {
		kind := inferKind(cells)
		col := make([]Value, len(cells))
		for r, cell := range cells {
			col[r] = parseCell(cell, kind)
		}
		t.kinds[c] = kind
		t.cols[c] = col
		t.index[names[c]] = c
	}
	return t, nil
}

// ReadCSV parses comma-separated input with a header row into a table.
// A UTF-8 BOM is skipped, invalid UTF-8 is replaced and blank lines are ignored.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(NewIntakeReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, &ParseError{Record: 1, Err: err}
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Record: len(records) + 2, Err: err}
		}
		records = append(records, rec)
	}

	return Load(header, records)
}

func uniqueHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for n := 1; seen[name]; n++ {
			name = h + "." + strconv.Itoa(n)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}
