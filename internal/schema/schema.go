// Package schema classifies tables by the fixed column sets that drive chart
// selection.
package schema

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/JonMunkholm/csvexplorer/internal/dataset"
)

// Tag is the closed set of schema classifications.
type Tag int

const (
	Unknown Tag = iota
	SchemaA
	SchemaB
)

func (t Tag) String() string {
	switch t {
	case SchemaA:
		return "SCHEMA_A"
	case SchemaB:
		return "SCHEMA_B"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the tag by name in JSON and YAML output.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

var (
	// ErrMissingColumns matches MissingColumnsError.
	ErrMissingColumns = errors.New("missing columns for schema")

	// ErrMissingOptionalColumn marks a non-fatal absent column; charts that need
	// it are replaced by a warning.
	ErrMissingOptionalColumn = errors.New("missing optional column")
)

// MissingColumnsError reports a table that claims a schema without carrying its
// required columns.
type MissingColumnsError struct {
	Tag     Tag
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns for schema %s: the file must contain the columns %s",
		e.Tag, quoteJoin(e.Missing))
}

func (e *MissingColumnsError) Is(target error) bool { return target == ErrMissingColumns }

// MissingOptional builds the warning for an absent optional column.
func MissingOptional(column string) error {
	return fmt.Errorf("%w: the file does not contain the column %q", ErrMissingOptionalColumn, column)
}

// Classify returns the first registered signature whose required columns are
// all present. Only column names are inspected.
func Classify(t *dataset.Table) Tag {
	for _, sig := range Signatures() {
		if hasAll(t, sig.Required) {
			return sig.Tag
		}
	}
	return Unknown
}

// Candidate maps an uploaded file name to the schema it claims, if any.
func Candidate(filename string) Tag {
	base := strings.ToLower(path.Base(strings.ReplaceAll(filename, `\`, "/")))
	for _, sig := range Signatures() {
		if sig.FileName != "" && base == sig.FileName {
			return sig.Tag
		}
	}
	return Unknown
}

// Missing returns the required columns of tag that t lacks, in signature order.
func Missing(t *dataset.Table, tag Tag) []string {
	sig, ok := Lookup(tag)
	if !ok {
		return nil
	}
	var missing []string
	for _, col := range sig.Required {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Check returns a MissingColumnsError when t cannot carry tag.
func Check(t *dataset.Table, tag Tag) error {
	if missing := Missing(t, tag); len(missing) > 0 {
		return &MissingColumnsError{Tag: tag, Missing: missing}
	}
	return nil
}

func hasAll(t *dataset.Table, cols []string) bool {
	for _, c := range cols {
		if !t.Has(c) {
			return false
		}
	}
	return true
}

func quoteJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = "'" + c + "'"
	}
	switch len(quoted) {
	case 0:
		return ""
	case 1:
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " and " + quoted[len(quoted)-1]
}
