package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/segmend/codec"
	"github.com/hupe1980/segmend/value"
)

// Schema is an ordered set of uniquely named fields.
type Schema struct {
	name   string
	fields []FieldSpec
	index  map[string]int
}

// New validates fields and returns a schema preserving their order.
func New(name string, fields ...FieldSpec) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: make([]FieldSpec, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Field returns the field named name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// Has reports whether the schema declares name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

type jsonSchema struct {
	SchemaName          string      `json:"schemaName"`
	DimensionFieldSpecs []jsonField `json:"dimensionFieldSpecs"`
	MetricFieldSpecs    []jsonField `json:"metricFieldSpecs"`
	DateTimeFieldSpecs  []jsonField `json:"dateTimeFieldSpecs"`
}

type jsonField struct {
	Name             string          `json:"name"`
	DataType         string          `json:"dataType"`
	SingleValueField *bool           `json:"singleValueField"`
	DefaultNullValue json.RawMessage `json:"defaultNullValue"`
}

// ParseJSON parses a Pinot-style schema document:
//
//	{"schemaName": "...",
//	 "dimensionFieldSpecs": [{"name": "region", "dataType": "STRING", "defaultNullValue": "UNKNOWN"}],
//	 "metricFieldSpecs": [...], "dateTimeFieldSpecs": [...]}
//
// singleValueField defaults to true. defaultNullValue may be a scalar or,
// for multi-value fields, an array.
func ParseJSON(data []byte) (*Schema, error) {
	var doc jsonSchema
	if err := codec.Default.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	groups := []struct {
		role  Role
		specs []jsonField
	}{
		{RoleDimension, doc.DimensionFieldSpecs},
		{RoleMetric, doc.MetricFieldSpecs},
		{RoleDateTime, doc.DateTimeFieldSpecs},
	}

	var fields []FieldSpec
	for _, g := range groups {
		for _, jf := range g.specs {
			f, err := jf.toField(g.role)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	}
	return New(doc.SchemaName, fields...)
}

// LoadJSON reads and parses a schema file.
func LoadJSON(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseJSON(data)
}

func (jf jsonField) toField(role Role) (FieldSpec, error) {
	t, err := value.ParseType(jf.DataType)
	if err != nil {
		return FieldSpec{}, fmt.Errorf("field %q: %w", jf.Name, err)
	}
	f := FieldSpec{Name: jf.Name, DataType: t, SingleValue: true, Role: role}
	if jf.SingleValueField != nil {
		f.SingleValue = *jf.SingleValueField
	}
	defaults, err := parseDefaults(t, jf.DefaultNullValue)
	if err != nil {
		return FieldSpec{}, fmt.Errorf("field %q: %w", jf.Name, err)
	}
	f.Defaults = defaults
	return f, nil
}

// parseDefaults keeps number literals as text so LONG defaults survive
// without a float64 round trip. Unsupported types keep their defaults
// unparsed and fail later at build time.
func parseDefaults(t value.Type, raw json.RawMessage) ([]value.Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" || !t.Supported() {
		return nil, nil
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := codec.Default.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		out := make([]value.Value, 0, len(items))
		for _, item := range items {
			v, err := parseLiteral(t, item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	v, err := parseLiteral(t, raw)
	if err != nil {
		return nil, err
	}
	return []value.Value{v}, nil
}

func parseLiteral(t value.Type, raw json.RawMessage) (value.Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := codec.Default.Unmarshal(raw, &s); err != nil {
			return value.Value{}, err
		}
		return value.Parse(t, s)
	}
	if t == value.TypeJSON {
		return value.JSON(string(raw)), nil
	}
	return value.Parse(t, strings.TrimSpace(string(raw)))
}
