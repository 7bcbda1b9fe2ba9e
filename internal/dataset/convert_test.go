package dataset

import (
	"errors"
	"math"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		kind    Kind
		want    Value
		wantErr bool
	}{
		// Int columns
		{name: "plain integer", raw: "42", kind: KindInt, want: Int(42)},
		{name: "signed integer", raw: "-7", kind: KindInt, want: Int(-7)},
		{name: "integral decimal", raw: "30.0", kind: KindInt, want: Int(30)},
		{name: "thousands separator", raw: "1,234", kind: KindInt, want: Int(1234)},
		{name: "currency", raw: "$15", kind: KindInt, want: Int(15)},
		{name: "accounting negative", raw: "(12)", kind: KindInt, want: Int(-12)},
		{name: "surrounding whitespace", raw: "  8 ", kind: KindInt, want: Int(8)},
		{name: "empty is null", raw: "", kind: KindInt, want: Null(KindInt)},
		{name: "NaN token is null", raw: "NaN", kind: KindInt, want: Null(KindInt)},
		{name: "fractional rejected", raw: "2.5", kind: KindInt, wantErr: true},
		{name: "letters rejected", raw: "abc", kind: KindInt, wantErr: true},
		{name: "overflow rejected", raw: "99999999999999999999", kind: KindInt, wantErr: true},

		// Float columns
		{name: "decimal", raw: "22.5", kind: KindFloat, want: Float(22.5)},
		{name: "integer into float", raw: "30", kind: KindFloat, want: Float(30)},
		{name: "leading point", raw: ".5", kind: KindFloat, want: Float(0.5)},
		{name: "exponent", raw: "1e3", kind: KindFloat, want: Float(1000)},
		{name: "euro and separators", raw: "€1,000.25", kind: KindFloat, want: Float(1000.25)},
		{name: "infinity", raw: "-inf", kind: KindFloat, want: Float(math.Inf(-1))},
		{name: "na is null", raw: "NA", kind: KindFloat, want: Null(KindFloat)},
		{name: "word rejected", raw: "abc", kind: KindFloat, wantErr: true},
		{name: "hex rejected", raw: "0x10", kind: KindFloat, wantErr: true},

		// Bool columns
		{name: "true", raw: "True", kind: KindBool, want: Bool(true)},
		{name: "yes", raw: "yes", kind: KindBool, want: Bool(true)},
		{name: "zero", raw: "0", kind: KindBool, want: Bool(false)},
		{name: "maybe rejected", raw: "maybe", kind: KindBool, wantErr: true},

		// Text columns
		{name: "text verbatim", raw: " A/5 21171 ", kind: KindText, want: Text(" A/5 21171 ")},
		{name: "text keeps NA", raw: "NA", kind: KindText, want: Text("NA")},
		{name: "text empty is null", raw: "", kind: KindText, want: Null(KindText)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.raw, tt.kind)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Coerce(%q, %s) = %v, want error", tt.raw, tt.kind, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Coerce(%q, %s) error = %v", tt.raw, tt.kind, err)
			}
			if !got.Equal(tt.want) || got.Kind() != tt.want.Kind() {
				t.Errorf("Coerce(%q, %s) = %#v, want %#v", tt.raw, tt.kind, got, tt.want)
			}
		})
	}
}

func TestCoerce_ErrorMentionsNumber(t *testing.T) {
	_, err := Coerce("abc", KindFloat)
	if !errors.Is(err, errInvalidNumber) {
		t.Errorf("Coerce error = %v, want %v", err, errInvalidNumber)
	}
}

func TestIsNullToken(t *testing.T) {
	for _, s := range []string{"", "NaN", "NA", "null"} {
		if IsNullToken(s) != nullTokens[s] {
			t.Errorf("IsNullToken(%q) disagrees with the token table", s)
		}
	}
	if !IsNullToken("") {
		t.Error(`IsNullToken("") = false, want true`)
	}
	if IsNullToken("S") {
		t.Error(`IsNullToken("S") = true, want false`)
	}
}

func TestInferKind(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  Kind
	}{
		{name: "integers", cells: []string{"1", "2", "3"}, want: KindInt},
		{name: "integers with null become float", cells: []string{"22", "", "30"}, want: KindFloat},
		{name: "decimals", cells: []string{"7.25", "71.2833"}, want: KindFloat},
		{name: "mixed int and float", cells: []string{"1", "2.5"}, want: KindFloat},
		{name: "booleans", cells: []string{"True", "false", "TRUE"}, want: KindBool},
		{name: "booleans with null are text", cells: []string{"True", ""}, want: KindText},
		{name: "tickets", cells: []string{"113803", "A/5 21171"}, want: KindText},
		{name: "all null", cells: []string{"", "NaN"}, want: KindFloat},
		{name: "no cells", cells: nil, want: KindFloat},
		{name: "huge integer is float", cells: []string{"99999999999999999999"}, want: KindFloat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferKind(tt.cells); got != tt.want {
				t.Errorf("inferKind(%q) = %s, want %s", tt.cells, got, tt.want)
			}
		})
	}
}

func TestValueString_RoundTripsThroughCoerce(t *testing.T) {
	values := []Value{
		Int(-3), Int(0), Float(22.5), Float(0.1 + 0.2), Float(1e-7), Float(3e22),
		Float(math.Inf(1)), Bool(true), Bool(false), Text("S"), Null(KindFloat),
	}

	for _, v := range values {
		got, err := Coerce(v.String(), v.Kind())
		if err != nil {
			t.Errorf("Coerce(%q, %s) error = %v", v.String(), v.Kind(), err)
			continue
		}
		if !got.Equal(v) {
			t.Errorf("Coerce(%q, %s) = %v, want %v", v.String(), v.Kind(), got, v)
		}
	}
}
