package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the value type of a column, inferred at load and kept across edits.
type Kind uint8

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindBool
)

var kindNames = [...]string{
	KindText:  "text",
	KindInt:   "int",
	KindFloat: "float",
	KindBool:  "bool",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Numeric reports whether values of this kind parse to numbers.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown column kind %q", b)
}

// Value is a single table cell. The zero Value is a null text cell.
type Value struct {
	kind  Kind
	valid bool
	text  string
	i     int64
	f     float64
	b     bool
}

// Null returns a null cell of the given kind.
func Null(k Kind) Value { return Value{kind: k} }

// Text returns a text cell.
func Text(s string) Value { return Value{kind: KindText, valid: true, text: s} }

// Int returns an integer cell.
func Int(i int64) Value { return Value{kind: KindInt, valid: true, i: i} }

// Float returns a float cell. NaN is stored as null.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Value{kind: KindFloat}
	}
	return Value{kind: KindFloat, valid: true, f: f}
}

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, valid: true, b: b} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return !v.valid }

// Float returns the numeric value of an int or float cell.
func (v Value) Float() (float64, bool) {
	if !v.valid {
		return 0, false
	}
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Int returns the value of an int cell.
func (v Value) Int() (int64, bool) {
	if !v.valid || v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Bool returns the value of a bool cell.
func (v Value) Bool() (bool, bool) {
	if !v.valid || v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Any returns the cell as nil, string, int64, float64 or bool.
func (v Value) Any() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	default:
		return v.text
	}
}

// String renders the cell as display text. Null renders as the empty string,
// and the result parses back to the same value under Coerce.
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	default:
		return v.text
	}
}

// Equal reports whether two cells hold the same kind and value.
// Two nulls are equal regardless of kind.
func (v Value) Equal(o Value) bool {
	if !v.valid || !o.valid {
		return v.valid == o.valid
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	default:
		return v.text == o.text
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if a := math.Abs(f); a == 0 || (a >= 1e-4 && a < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
