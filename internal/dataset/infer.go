package dataset

import (
	"strconv"
	"strings"
)

// Tokens treated as missing values, matching common CSV exports.
var missingTokens = map[string]bool{
	"":     true,
	"null": true,
	"NULL": true,
	"N/A":  true,
	"n/a":  true,
}

// Boolean token set. "1"/"0" are deliberately excluded so an
// all-integer column infers numeric.
var boolTokens = map[string]bool{
	"true": true, "false": false,
	"yes": true, "no": false,
}

func isMissing(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

func parseNumeric(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func parseBool(s string) (bool, bool) {
	v, ok := boolTokens[strings.ToLower(strings.TrimSpace(s))]
	return v, ok
}

// inferType classifies a column from its raw cells. Numeric wins if
// every non-missing cell parses as a number; boolean if every
// non-missing cell is a true/false token; otherwise text. A column
// with no non-missing cells stays text.
func inferType(cells []string) Type {
	numeric, boolean := true, true
	seen := false
	for _, cell := range cells {
		if isMissing(cell) {
			continue
		}
		seen = true
		if numeric {
			if _, ok := parseNumeric(cell); !ok {
				numeric = false
			}
		}
		if boolean {
			if _, ok := parseBool(cell); !ok {
				boolean = false
			}
		}
		if !numeric && !boolean {
			return TypeText
		}
	}
	if !seen {
		return TypeText
	}
	if numeric {
		return TypeNumeric
	}
	if boolean {
		return TypeBoolean
	}
	return TypeText
}

// buildColumn types raw cells according to the inferred column type.
func buildColumn(name string, colType Type, cells []string) Column {
	values := make([]Value, len(cells))
	for i, cell := range cells {
		trimmed := strings.TrimSpace(cell)
		if isMissing(cell) {
			values[i] = Value{Null: true}
			continue
		}
		v := Value{Raw: trimmed}
		switch colType {
		case TypeNumeric:
			v.Num, _ = parseNumeric(trimmed)
		case TypeBoolean:
			v.Bool, _ = parseBool(trimmed)
		}
		values[i] = v
	}
	return Column{Name: name, Type: colType, Values: values}
}

// Coerce converts a caller-supplied comparison value (string, number
// or bool, as JSON delivers them) into a Value of the target type.
// The bool result reports whether the coercion succeeded.
func Coerce(raw any, target Type) (Value, bool) {
	switch target {
	case TypeNumeric:
		switch v := raw.(type) {
		case float64:
			return Value{Num: v, Raw: strconv.FormatFloat(v, 'f', -1, 64)}, true
		case int:
			return Value{Num: float64(v), Raw: strconv.Itoa(v)}, true
		case string:
			if f, ok := parseNumeric(v); ok {
				return Value{Num: f, Raw: strings.TrimSpace(v)}, true
			}
		}
		return Value{}, false
	case TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return Value{Bool: v, Raw: strconv.FormatBool(v)}, true
		case string:
			if b, ok := parseBool(v); ok {
				return Value{Bool: b, Raw: strings.TrimSpace(v)}, true
			}
		}
		return Value{}, false
	default:
		switch v := raw.(type) {
		case string:
			return Value{Raw: v}, true
		case float64:
			return Value{Raw: strconv.FormatFloat(v, 'f', -1, 64)}, true
		case bool:
			return Value{Raw: strconv.FormatBool(v)}, true
		}
		return Value{}, false
	}
}
