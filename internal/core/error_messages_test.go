package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/JonMunkholm/csvexplorer/internal/export"
	"github.com/JonMunkholm/csvexplorer/internal/schema"
)

func TestMapError(t *testing.T) {
	_, emptyErr := dataset.ReadCSV(strings.NewReader(""))
	_, raggedErr := dataset.ReadCSV(strings.NewReader("a,b\n1,2,3\n"))

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"file too large", fmt.Errorf("%w: big.csv exceeds 10 bytes", ErrFileTooLarge), "FILE001"},
		{"empty upload wins over invalid csv", emptyErr, "FILE005"},
		{"ragged csv", raggedErr, "FILE002"},
		{"wrong extension", fmt.Errorf("%w: notes.txt", ErrNotCSV), "FILE003"},
		{"no file", ErrNoFile, "FILE004"},
		{"unknown file", fmt.Errorf("%w: x.csv", ErrFileNotFound), "FILE006"},
		{"row out of range", &dataset.IndexOutOfRangeError{Index: 9, Len: 3}, "ROW001"},
		{"unknown column", &dataset.UnknownColumnError{Columns: []string{"Cabin"}}, "EDIT001"},
		{"coercion beats integer range text", &dataset.CoercionError{Column: "Age", Value: "1e99", Kind: dataset.KindInt, Err: errors.New("invalid number: integer out of range")}, "EDIT002"},
		{"stale buffer", dataset.ErrStaleEditBuffer, "EDIT003"},
		{"missing required columns", &schema.MissingColumnsError{Tag: schema.SchemaA, Missing: []string{"Ticket"}}, "SCH001"},
		{"missing optional column", schema.MissingOptional("Sex"), "SCH002"},
		{"serialization", &export.SerializationError{Row: 0, Column: "Fare", Reason: "non-finite number inf"}, "EXP001"},
		{"session expired", ErrSessionNotFound, "SES001"},
		{"store full", ErrTooManySessions, "SES002"},
		{"nothing selected", ErrNoTable, "SES003"},
		{"parser busy", ErrTooManyParses, "UPL002"},
		{"chart index", fmt.Errorf("%w: 7", ErrChartNotFound), "UPL003"},
		{"cancelled", fmt.Errorf("upload: %w", context.Canceled), "UPL004"},
		{"timeout", context.DeadlineExceeded, "UPL005"},
		{"rate limit", ErrRateLimited, "RATE001"},
		{"malformed row index", fmt.Errorf("%w: invalid row index %q", ErrBadRequest, "x"), "REQ001"},
		{"too many files", fmt.Errorf("%w: at most 10 files per upload", ErrBadRequest), "REQ001"},
		{"untyped rate limit text", errors.New("rate limit exceeded"), "RATE001"},
		{"untyped text is case insensitive", errors.New("INVALID CSV: record 2"), "FILE002"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v) code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestMapError_IgnoresUserText(t *testing.T) {
	tbl, err := dataset.ReadCSV(strings.NewReader("Ticket,Age\nA1,22\n"))
	if err != nil {
		t.Fatal(err)
	}

	_, unknownErr := dataset.EditRow(tbl, 0, map[string]string{"file too large": "1"})
	_, coerceErr := dataset.EditRow(tbl, 0, map[string]string{"Age": "session not found"})
	missingErr := schema.Check(tbl, schema.SchemaB)

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"column named after another error", unknownErr, "EDIT001"},
		{"value named after another error", coerceErr, "EDIT002"},
		{"file name named after another error", fmt.Errorf("rate limit.csv: %w", ErrNotCSV), "FILE003"},
		{"claimed schema", missingErr, "SCH001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatal("expected an error")
			}
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError(%v) code = %q, want %q", tt.err, got, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoTable)

	expected := "No file is selected (Code: SES003). Upload a CSV file or select one from the list"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrNoTable, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
		{"wrapped sentinel is user facing", fmt.Errorf("a.csv: %w", ErrNotCSV), true},
		{"untyped error quoting a pattern is not user facing", errors.New(`open "invalid csv": permission denied`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
