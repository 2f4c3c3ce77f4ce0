package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/segmend/value"
)

// Role is the field category of a column. It selects null sentinels.
type Role uint8

const (
	// RoleDimension is a grouping/filter column.
	RoleDimension Role = iota
	// RoleMetric is an aggregated column.
	RoleMetric
	// RoleDateTime is a time column.
	RoleDateTime
)

func (r Role) String() string {
	switch r {
	case RoleDimension:
		return "DIMENSION"
	case RoleMetric:
		return "METRIC"
	case RoleDateTime:
		return "DATE_TIME"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DIMENSION", "":
		return RoleDimension, nil
	case "METRIC":
		return RoleMetric, nil
	case "DATE_TIME", "DATETIME", "TIME":
		return RoleDateTime, nil
	default:
		return RoleDimension, fmt.Errorf("unknown field role %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// FieldSpec declares one column.
//
// Defaults holds the configured default: one value for single-value
// columns, one or more for multi-value columns. An empty Defaults is a null
// default and is materialized as the type's null sentinel.
type FieldSpec struct {
	Name        string
	DataType    value.Type
	SingleValue bool
	Role        Role
	Defaults    []value.Value
}

// Dimension returns a single-value dimension field.
func Dimension(name string, t value.Type, def value.Value) FieldSpec {
	return newField(name, t, RoleDimension, def)
}

// Metric returns a single-value metric field.
func Metric(name string, t value.Type, def value.Value) FieldSpec {
	return newField(name, t, RoleMetric, def)
}

// DateTime returns a single-value date-time field.
func DateTime(name string, t value.Type, def value.Value) FieldSpec {
	return newField(name, t, RoleDateTime, def)
}

func newField(name string, t value.Type, role Role, def value.Value) FieldSpec {
	f := FieldSpec{Name: name, DataType: t, SingleValue: true, Role: role}
	if !def.IsZero() {
		f.Defaults = []value.Value{def}
	}
	return f
}

// MultiValue returns a copy of f declared multi-valued with the given
// default list.
func (f FieldSpec) MultiValue(defaults ...value.Value) FieldSpec {
	f.SingleValue = false
	if len(defaults) > 0 {
		f.Defaults = defaults
	}
	return f
}

// NullDefault reports whether f has no configured default.
func (f FieldSpec) NullDefault() bool { return len(f.Defaults) == 0 }

// Validate checks the field's shape. Unsupported data types are accepted
// here and rejected when the column is built.
func (f FieldSpec) Validate() error {
	if f.Name == "" {
		return errors.New("field name is empty")
	}
	if strings.ContainsAny(f.Name, "/\x00") {
		return fmt.Errorf("field %q: name contains a reserved character", f.Name)
	}
	if f.SingleValue && len(f.Defaults) > 1 {
		return fmt.Errorf("field %q: single-value field has %d defaults", f.Name, len(f.Defaults))
	}
	for _, d := range f.Defaults {
		if d.Type() != f.DataType {
			return fmt.Errorf("field %q: default %s does not match data type %s", f.Name, d.Type(), f.DataType)
		}
	}
	return nil
}

// ResolvedDefaults returns the values every row of a synthetic column
// holds: the configured defaults, or the null sentinel for a null default.
func (f FieldSpec) ResolvedDefaults() ([]value.Value, error) {
	if !f.NullDefault() {
		return f.Defaults, nil
	}
	v, err := value.NullSentinel(f.DataType, f.Role == RoleMetric)
	if err != nil {
		return nil, err
	}
	return []value.Value{v}, nil
}
