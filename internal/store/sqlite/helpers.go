package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/paleoml/paleo/internal/store/filter"
	"github.com/paleoml/paleo/pkg/metadata"
)

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// conditionClause translates a parsed filter condition into a WHERE fragment
// for the given entity table alias. propTable/fkCol point at the entity's
// property side table. allowURI is false for executions, which have no URI.
func conditionClause(c *filter.Condition, alias, propTable, fkCol string, allowURI bool) (string, []any, error) {
	switch c.Field {
	case filter.FieldID:
		v, err := c.TypedValue()
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s.id = ?", alias), []any{v}, nil
	case filter.FieldName:
		return fmt.Sprintf("%s.name = ?", alias), []any{c.Value}, nil
	case filter.FieldType:
		return fmt.Sprintf("%s.type = ?", alias), []any{c.Value}, nil
	case filter.FieldURI:
		if !allowURI {
			return "", nil, fmt.Errorf("field %q not supported for this entity", c.Field)
		}
		return fmt.Sprintf("%s.uri = ?", alias), []any{c.Value}, nil
	case filter.FieldCustomProperty:
		v, err := c.TypedValue()
		if err != nil {
			return "", nil, err
		}
		if b, ok := v.(bool); ok {
			// bool_value is stored as 0/1
			v = 0
			if b {
				v = 1
			}
		}
		clause := fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s p WHERE p.%s = %s.id AND p.name = ? AND p.%s = ?)",
			propTable, fkCol, alias, c.Suffix,
		)
		return clause, []any{c.Property, v}, nil
	default:
		return "", nil, fmt.Errorf("unsupported filter field %q", c.Field)
	}
}

// whereFor parses an optional filter query into a WHERE clause.
func whereFor(filterQuery, alias, propTable, fkCol string, allowURI bool) (string, []any, error) {
	if strings.TrimSpace(filterQuery) == "" {
		return "", nil, nil
	}
	cond, err := filter.Parse(filterQuery)
	if err != nil {
		return "", nil, err
	}
	clause, args, err := conditionClause(cond, alias, propTable, fkCol, allowURI)
	if err != nil {
		return "", nil, err
	}
	return " WHERE " + clause, args, nil
}

// scanProperty converts a property row's nullable columns into a typed value.
func scanProperty(str sql.NullString, i sql.NullInt64, d sql.NullFloat64, b sql.NullInt64) metadata.PropertyValue {
	switch {
	case str.Valid:
		return metadata.StringValue(str.String)
	case i.Valid:
		return metadata.IntValue(i.Int64)
	case d.Valid:
		return metadata.DoubleValue(d.Float64)
	case b.Valid:
		return metadata.BoolValue(b.Int64 != 0)
	default:
		return metadata.PropertyValue{}
	}
}

// propertyColumns maps a typed value onto the nullable insert columns.
func propertyColumns(v metadata.PropertyValue) (str, i, d, b any) {
	if s, ok := v.StringVal(); ok {
		return s, nil, nil, nil
	}
	if n, ok := v.IntVal(); ok {
		return nil, n, nil, nil
	}
	if f, ok := v.DoubleVal(); ok {
		return nil, nil, f, nil
	}
	if t, ok := v.BoolVal(); ok {
		n := int64(0)
		if t {
			n = 1
		}
		return nil, nil, nil, n
	}
	return nil, nil, nil, nil
}
