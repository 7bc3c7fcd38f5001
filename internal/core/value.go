package core

// value.go models a single survey cell.
//
// Survey exports mix numeric codes, free text, and blanks in the same column,
// so a cell is one of three kinds rather than a Go primitive. Numeric cells
// keep the text they were parsed from so reports echo what the respondent file
// actually contained ("01" stays "01").

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

// Value is an immutable survey cell: absent, numeric, or text.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Null returns the absent value.
func Null() Value { return Value{} }

// Number returns a numeric value. NaN is treated as absent, which is how
// statistical packages encode system-missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Text returns a text value. Text that trims to empty is still text; use
// ParseValue to collapse blanks to Null.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// ParseValue converts a raw cell into a Value. Blank cells become Null,
// numeric-looking cells become numbers, everything else is text.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null()
	}
	if f, ok := parseNumber(s); ok {
		return Value{kind: KindNumber, num: f, text: s}
	}
	return Value{kind: KindText, text: s}
}

// parseNumber parses a finite decimal number.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Kind reports the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBlank reports whether the value is absent or text that trims to empty.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindText:
		return strings.TrimSpace(v.text) == ""
	default:
		return false
	}
}

// Float coerces the value to a number. Text is parsed after trimming; absent
// values and unparsable text report false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		return parseNumber(strings.TrimSpace(v.text))
	default:
		return 0, false
	}
}

// String returns the textual form of the value. Absent values render as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		if v.text != "" {
			return v.text
		}
		return formatNumber(v.num)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// key returns a canonical form used for equality grouping: numbers compare by
// value (1 and 1.0 collide), text by its trimmed form.
func (v Value) key() string {
	if f, ok := v.Float(); ok {
		return "n:" + formatNumber(f)
	}
	return "s:" + strings.TrimSpace(v.String())
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
