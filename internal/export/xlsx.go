// Package export serializes table snapshots to spreadsheet files.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/xuri/excelize/v2"
)

const (
	// Filename is the download name of every export.
	Filename = "datos.xlsx"

	// ContentType is the spreadsheet-ML media type.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// SheetName is the only sheet written.
	SheetName = "Sheet1"

	MaxRows      = 1048576 // header included
	MaxColumns   = 16384
	MaxCellChars = 32767

	// maxExactInt is the largest integer a spreadsheet number holds exactly.
	maxExactInt = 1 << 53
)

// ErrSerialization matches SerializationError.
var ErrSerialization = errors.New("serialization failed")

// SerializationError names the first value the spreadsheet format cannot hold.
// Row is the zero-based table row, or -1 for the header and table shape.
type SerializationError struct {
	Row    int
	Column string
	Reason string
	Err    error
}

func (e *SerializationError) Error() string {
	msg := "serialization failed"
	switch {
	case e.Row >= 0 && e.Column != "":
		msg += fmt.Sprintf(": row %d, column %q", e.Row, e.Column)
	case e.Column != "":
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SerializationError) Is(target error) bool { return target == ErrSerialization }
func (e *SerializationError) Unwrap() error        { return e.Err }

// XLSX writes t as a single-sheet workbook: a header row, then one row per
// table row in order. Numbers are numeric cells, booleans are "True"/"False"
// text so they read back as booleans, and nulls are empty cells.
func XLSX(t *dataset.Table) ([]byte, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	columns := t.Columns()
	header := make([]any, len(columns))
	for i, name := range columns {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, &SerializationError{Row: -1, Err: err}
	}

	for r := 0; r < t.Len(); r++ {
		values, _ := t.Row(r)
		cells := make([]any, len(values))
		for c, v := range values {
			cells[c] = cellValue(v)
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, &SerializationError{Row: r, Err: err}
		}
		if err := f.SetSheetRow(SheetName, axis, &cells); err != nil {
			return nil, &SerializationError{Row: r, Err: err}
		}
	}

	// The dimension keeps the row count when trailing rows are all empty.
	last, err := excelize.CoordinatesToCellName(len(columns), t.Len()+1)
	if err != nil {
		return nil, &SerializationError{Row: -1, Err: err}
	}
	if err := f.SetSheetDimension(SheetName, "A1:"+last); err != nil {
		return nil, &SerializationError{Row: -1, Err: err}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &SerializationError{Row: -1, Err: err}
	}
	return buf.Bytes(), nil
}

// Validate reports the first value of t that XLSX cannot represent.
func Validate(t *dataset.Table) error {
	if t.Width() > MaxColumns {
		return &SerializationError{Row: -1, Reason: fmt.Sprintf("%d columns exceed the sheet limit of %d", t.Width(), MaxColumns)}
	}
	if t.Len()+1 > MaxRows {
		return &SerializationError{Row: -1, Reason: fmt.Sprintf("%d rows exceed the sheet limit of %d", t.Len(), MaxRows-1)}
	}

	columns := t.Columns()
	for _, name := range columns {
		if utf8.RuneCountInString(name) > MaxCellChars {
			return &SerializationError{Row: -1, Column: name[:32] + "...", Reason: "column name too long"}
		}
	}

	for _, name := range columns {
		values, _ := t.Values(name)
		for r, v := range values {
			if reason := unrepresentable(v); reason != "" {
				return &SerializationError{Row: r, Column: name, Reason: reason}
			}
		}
	}
	return nil
}

func unrepresentable(v dataset.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case dataset.KindFloat:
		if f, _ := v.Float(); math.IsInf(f, 0) {
			return "non-finite number " + v.String()
		}
	case dataset.KindInt:
		if i, _ := v.Int(); i > maxExactInt || i < -maxExactInt {
			return "integer " + v.String() + " exceeds 2^53"
		}
	case dataset.KindText:
		if n := utf8.RuneCountInString(v.String()); n > MaxCellChars {
			return fmt.Sprintf("text of %d characters exceeds %d", n, MaxCellChars)
		}
	}
	return ""
}

func cellValue(v dataset.Value) any {
	if v.IsNull() {
		return nil
	}
	if v.Kind() == dataset.KindBool {
		return v.String()
	}
	return v.Any()
}

// ReadXLSX loads the first sheet of a workbook, header row first, through the
// same type inference as CSV input.
func ReadXLSX(r io.Reader) (*dataset.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &dataset.ParseError{Reason: "not a spreadsheet", Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &dataset.ParseError{Err: err}
	}
	if len(rows) == 0 {
		return dataset.Load(nil, nil)
	}

	records := rows[1:]
	for n := dimensionRows(f, sheet); len(records) < n; {
		records = append(records, nil)
	}
	return dataset.Load(rows[0], records)
}

// dimensionRows is the data row count recorded in the sheet dimension, which
// counts trailing empty rows that GetRows leaves out.
func dimensionRows(f *excelize.File, sheet string) int {
	ref, err := f.GetSheetDimension(sheet)
	if err != nil || ref == "" {
		return 0
	}
	if _, end, ok := strings.Cut(ref, ":"); ok {
		ref = end
	}
	_, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return 0
	}
	return row - 1
}
