package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// PropertyKind enumerates the value kinds the store's filter language knows.
type PropertyKind int

// Supported property kinds. KindUnspecified is the zero value and is rejected
// at the filter boundary.
const (
	KindUnspecified PropertyKind = iota
	KindString
	KindInt
	KindDouble
	KindBool
)

// String returns the kind name as used in CLI flags and config.
func (k PropertyKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	default:
		return "unspecified"
	}
}

// PropertyValue is a tagged union over the custom-property value kinds the
// metadata store supports. The zero value has no kind and cannot be used in
// a filter query.
type PropertyValue struct {
	kind PropertyKind
	s    string
	i    int64
	d    float64
	b    bool
}

// StringValue wraps a string property value.
func StringValue(v string) PropertyValue { return PropertyValue{kind: KindString, s: v} }

// IntValue wraps an integer property value.
func IntValue(v int64) PropertyValue { return PropertyValue{kind: KindInt, i: v} }

// DoubleValue wraps a floating-point property value.
func DoubleValue(v float64) PropertyValue { return PropertyValue{kind: KindDouble, d: v} }

// BoolValue wraps a boolean property value.
func BoolValue(v bool) PropertyValue { return PropertyValue{kind: KindBool, b: v} }

// Kind returns the value's kind.
func (v PropertyValue) Kind() PropertyKind { return v.kind }

// StringVal returns the string payload. The bool reports whether the value
// actually holds a string.
func (v PropertyValue) StringVal() (string, bool) { return v.s, v.kind == KindString }

// IntVal returns the integer payload.
func (v PropertyValue) IntVal() (int64, bool) { return v.i, v.kind == KindInt }

// DoubleVal returns the floating-point payload.
func (v PropertyValue) DoubleVal() (float64, bool) { return v.d, v.kind == KindDouble }

// BoolVal returns the boolean payload.
func (v PropertyValue) BoolVal() (bool, bool) { return v.b, v.kind == KindBool }

// Interface returns the payload as an untyped value, or nil for the zero
// PropertyValue. Useful for JSON output.
func (v PropertyValue) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindDouble:
		return v.d
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// FilterSuffix maps the value kind to the typed-value field name of the
// store's filter language (custom_properties.<name>.<suffix>). The mapping is
// exhaustive over the supported kinds; anything else is an error rather than
// a malformed filter.
func (v PropertyValue) FilterSuffix() (string, error) {
	switch v.kind {
	case KindString:
		return "string_value", nil
	case KindInt:
		return "int_value", nil
	case KindDouble:
		return "double_value", nil
	case KindBool:
		return "bool_value", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, v.kind)
	}
}

// Literal renders the value as a filter-query literal: strings are
// double-quoted, everything else is bare.
func (v PropertyValue) Literal() string {
	switch v.kind {
	case KindString:
		return `"` + strings.ReplaceAll(v.s, `"`, `\"`) + `"`
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// ParsePropertyValue builds a PropertyValue from a raw string and a kind name
// ("string", "int", "double" or "float", "bool"). It is used by the CLI to
// turn --property flags into typed values.
func ParsePropertyValue(raw, kind string) (PropertyValue, error) {
	switch strings.ToLower(kind) {
	case "", "string":
		return StringValue(raw), nil
	case "int":
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return PropertyValue{}, fmt.Errorf("invalid int property value %q: %w", raw, err)
		}
		return IntValue(i), nil
	case "double", "float":
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return PropertyValue{}, fmt.Errorf("invalid double property value %q: %w", raw, err)
		}
		return DoubleValue(d), nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return PropertyValue{}, fmt.Errorf("invalid bool property value %q: %w", raw, err)
		}
		return BoolValue(b), nil
	default:
		return PropertyValue{}, fmt.Errorf("%w: %q", ErrUnsupportedType, kind)
	}
}
