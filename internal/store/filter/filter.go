// Package filter parses the filter-query vocabulary the query layer emits
// against metadata store backends. The grammar is deliberately small:
//
//	id = 7
//	name="run/abc"
//	type="Dataset"
//	uri="s3://bucket/model"
//	custom_properties.<name>.<typed>_value=<literal>
//
// String literals are double-quoted, numeric and boolean literals are bare.
// Anything outside this vocabulary is rejected; backends own the grammar and
// do not guess at unknown fields.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names a directly filterable column.
type Field string

// Recognized fields.
const (
	FieldID             Field = "id"
	FieldName           Field = "name"
	FieldType           Field = "type"
	FieldURI            Field = "uri"
	FieldCustomProperty Field = "custom_property"
)

// Typed-value suffixes for custom property conditions.
const (
	SuffixString = "string_value"
	SuffixInt    = "int_value"
	SuffixDouble = "double_value"
	SuffixBool   = "bool_value"
)

// Condition is one parsed equality condition.
type Condition struct {
	Field    Field
	Property string // set when Field == FieldCustomProperty
	Suffix   string // set when Field == FieldCustomProperty
	Value    string // literal with quotes stripped
	Quoted   bool
}

// Parse parses a single filter-query condition.
func Parse(query string) (*Condition, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty filter query")
	}

	eq := strings.Index(query, "=")
	if eq < 0 {
		return nil, fmt.Errorf("invalid filter query %q: missing '='", query)
	}

	lhs := strings.TrimSpace(query[:eq])
	rhs := strings.TrimSpace(query[eq+1:])
	if lhs == "" {
		return nil, fmt.Errorf("invalid filter query %q: missing field", query)
	}

	value, quoted, err := parseLiteral(rhs)
	if err != nil {
		return nil, fmt.Errorf("invalid filter query %q: %w", query, err)
	}

	if prop, ok := strings.CutPrefix(lhs, "custom_properties."); ok {
		name, suffix, ok := strings.Cut(prop, ".")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter query %q: want custom_properties.<name>.<typed>_value", query)
		}
		switch suffix {
		case SuffixString, SuffixInt, SuffixDouble, SuffixBool:
		default:
			return nil, fmt.Errorf("invalid filter query %q: unknown typed value %q", query, suffix)
		}
		return &Condition{
			Field:    FieldCustomProperty,
			Property: name,
			Suffix:   suffix,
			Value:    value,
			Quoted:   quoted,
		}, nil
	}

	switch Field(lhs) {
	case FieldID, FieldName, FieldType, FieldURI:
		return &Condition{Field: Field(lhs), Value: value, Quoted: quoted}, nil
	default:
		return nil, fmt.Errorf("invalid filter query %q: unknown field %q", query, lhs)
	}
}

// parseLiteral strips quoting from a literal. Quoted literals may contain
// escaped double quotes.
func parseLiteral(raw string) (value string, quoted bool, err error) {
	if raw == "" {
		return "", false, fmt.Errorf("missing value")
	}
	if raw[0] == '"' {
		if len(raw) < 2 || raw[len(raw)-1] != '"' {
			return "", false, fmt.Errorf("unterminated string literal %s", raw)
		}
		inner := raw[1 : len(raw)-1]
		return strings.ReplaceAll(inner, `\"`, `"`), true, nil
	}
	if strings.ContainsAny(raw, " \t") {
		return "", false, fmt.Errorf("unexpected token in value %q", raw)
	}
	return raw, false, nil
}

// TypedValue converts the condition's literal to the Go type implied by the
// field or suffix: int64 for id/int_value, float64 for double_value, bool for
// bool_value, string otherwise.
func (c *Condition) TypedValue() (any, error) {
	switch {
	case c.Field == FieldID:
		i, err := strconv.ParseInt(c.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("id literal %q is not an integer", c.Value)
		}
		return i, nil
	case c.Field != FieldCustomProperty:
		return c.Value, nil
	}

	switch c.Suffix {
	case SuffixInt:
		i, err := strconv.ParseInt(c.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("int_value literal %q is not an integer", c.Value)
		}
		return i, nil
	case SuffixDouble:
		d, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("double_value literal %q is not a number", c.Value)
		}
		return d, nil
	case SuffixBool:
		b, err := strconv.ParseBool(c.Value)
		if err != nil {
			return nil, fmt.Errorf("bool_value literal %q is not a boolean", c.Value)
		}
		return b, nil
	default:
		return c.Value, nil
	}
}
