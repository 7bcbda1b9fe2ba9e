package dataset

// convert.go turns raw strings into typed cells.
//
// Two rule sets live here:
//   - inference (load): strict literals only, the way a CSV reader types columns
//   - coercion (edit): user input into an existing column kind, tolerant of
//     currency symbols, thousands separators and accounting negatives

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex matches integers, decimals and scientific notation after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

// nullTokens are read as missing values at load and in numeric edits.
var nullTokens = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

var (
	errInvalidNumber  = errors.New("invalid number")
	errInvalidInteger = errors.New("invalid number: not an integer")
	errIntegerRange   = errors.New("invalid number: integer out of range")
	errInvalidBool    = errors.New("invalid boolean")
)

// IsNullToken reports whether s reads as a missing value.
func IsNullToken(s string) bool {
	return nullTokens[s]
}

// Coerce converts a user-entered raw string into a cell of kind k.
func Coerce(raw string, k Kind) (Value, error) {
	if k == KindText {
		if raw == "" {
			return Null(KindText), nil
		}
		return Text(raw), nil
	}

	s := strings.TrimSpace(raw)
	if IsNullToken(s) {
		return Null(k), nil
	}

	switch k {
	case KindInt:
		i, err := coerceInt(s)
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case KindFloat:
		f, err := coerceFloat(s)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case KindBool:
		b, err := coerceBool(s)
		if err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	}
	return Value{}, errors.New("unsupported column kind " + k.String())
}

func coerceInt(s string) (int64, error) {
	s = cleanNumeric(s)
	if integerRegex.MatchString(s) {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errIntegerRange
		}
		return i, nil
	}
	if !numericRegex.MatchString(s) {
		return 0, errInvalidNumber
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errInvalidNumber
	}
	if f != math.Trunc(f) {
		return 0, errInvalidInteger
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errIntegerRange
	}
	return int64(f), nil
}

func coerceFloat(s string) (float64, error) {
	if f, ok := parseInf(s); ok {
		return f, nil
	}
	s = cleanNumeric(s)
	if !numericRegex.MatchString(s) {
		return 0, errInvalidNumber
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errInvalidNumber
	}
	return f, nil
}

// coerceBool accepts true/false, yes/no, t/f, y/n and 1/0 in any case.
func coerceBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	}
	return false, errInvalidBool
}

// cleanNumeric strips currency symbols and thousands separators and turns the
// accounting form "(123.45)" into "-123.45".
func cleanNumeric(s string) string {
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}
	return s
}

func parseInf(s string) (float64, bool) {
	sign := 1.0
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	switch strings.ToLower(s) {
	case "inf", "infinity":
		return math.Inf(int(sign)), true
	}
	return 0, false
}

// inferKind picks the narrowest kind every non-null cell of a column parses as.
func inferKind(cells []string) Kind {
	var nulls, ints, floats, bools, total int
	for _, c := range cells {
		total++
		switch {
		case IsNullToken(c):
			nulls++
		case integerRegex.MatchString(c) && fitsInt64(c):
			ints++
		case isFloatLiteral(c):
			floats++
		case strings.EqualFold(c, "true") || strings.EqualFold(c, "false"):
			bools++
		}
	}

	present := total - nulls
	switch {
	case present == 0:
		return KindFloat
	case ints == present && nulls == 0:
		return KindInt
	case ints+floats == present:
		return KindFloat
	case bools == present && nulls == 0:
		return KindBool
	}
	return KindText
}

func fitsInt64(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloatLiteral(s string) bool {
	if _, ok := parseInf(s); ok {
		return true
	}
	return numericRegex.MatchString(s)
}

// parseCell converts a raw cell under the kind inferKind chose for its column,
// so the literal is known to parse.
func parseCell(raw string, k Kind) Value {
	if IsNullToken(raw) {
		return Null(k)
	}
	switch k {
	case KindInt:
		i, _ := strconv.ParseInt(raw, 10, 64)
		return Int(i)
	case KindFloat:
		if f, ok := parseInf(raw); ok {
			return Float(f)
		}
		f, _ := strconv.ParseFloat(raw, 64)
		return Float(f)
	case KindBool:
		return Bool(strings.EqualFold(raw, "true"))
	}
	return Text(raw)
}
