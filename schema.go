// schema.go: Configuration schema model for Hypnos
//
// Three schema shapes cover every declarable configuration: open
// sequences, open string-keyed mappings, and strongly-typed structures
// whose fields are declared explicitly through a fluent builder. No
// reflection: the field table is the single source of truth for typed
// access and coercion.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"
)

// SchemaKind identifies the shape of a configuration schema.
type SchemaKind int

const (
	SchemaList SchemaKind = iota
	SchemaMap
	SchemaStruct
)

func (k SchemaKind) String() string {
	switch k {
	case SchemaList:
		return "list"
	case SchemaMap:
		return "map"
	case SchemaStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// Schema describes the declared shape and defaults of a configuration.
type Schema interface {
	Kind() SchemaKind

	// DefaultValue builds a fresh value carrying the declared defaults.
	// The returned value is never aliased to the schema's internals.
	DefaultValue() interface{}
}

// ListSchema declares an open sequence configuration.
type ListSchema struct {
	defaults []interface{}
}

// List declares a sequence schema with the given default elements.
func List(defaults ...interface{}) *ListSchema {
	return &ListSchema{defaults: defaults}
}

func (s *ListSchema) Kind() SchemaKind { return SchemaList }

func (s *ListSchema) DefaultValue() interface{} {
	out := make([]interface{}, len(s.defaults))
	for i, v := range s.defaults {
		out[i] = deepCopyValue(v)
	}
	return out
}

// MapSchema declares an open string-keyed mapping configuration.
// Nested mappings are addressed with dot-separated paths.
type MapSchema struct {
	defaults map[string]interface{}
}

// Map declares a mapping schema with the given default entries.
// A nil argument declares an empty mapping.
func Map(defaults map[string]interface{}) *MapSchema {
	return &MapSchema{defaults: defaults}
}

func (s *MapSchema) Kind() SchemaKind { return SchemaMap }

func (s *MapSchema) DefaultValue() interface{} {
	out := make(map[string]interface{}, len(s.defaults))
	for k, v := range s.defaults {
		out[k] = deepCopyValue(v)
	}
	return out
}

// FieldKind identifies the declared type of a struct schema field.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldInt
	FieldInt64
	FieldFloat64
	FieldBool
	FieldDuration
	FieldStringSlice
)

func (k FieldKind) String() string {
	switch k {
	case FieldString:
		return "string"
	case FieldInt:
		return "int"
	case FieldInt64:
		return "int64"
	case FieldFloat64:
		return "float64"
	case FieldBool:
		return "bool"
	case FieldDuration:
		return "duration"
	case FieldStringSlice:
		return "string_slice"
	default:
		return "unknown"
	}
}

// Field is one declared field of a struct schema.
type Field struct {
	Name    string
	Kind    FieldKind
	Default interface{}
	Factory func() interface{}
}

// StructSchema declares a strongly-typed configuration as an explicit,
// ordered field table. Fields are added through the fluent builder
// methods; declaration order is preserved for serialization and calls.
type StructSchema struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewStruct starts a struct schema declaration.
func NewStruct(name string) *StructSchema {
	return &StructSchema{
		name:  name,
		index: make(map[string]int),
	}
}

func (s *StructSchema) add(f Field) *StructSchema {
	if i, ok := s.index[f.Name]; ok {
		s.fields[i] = f
		return s
	}
	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
	return s
}

// String declares a string field with a default.
func (s *StructSchema) String(name, def string) *StructSchema {
	return s.add(Field{Name: name, Kind: FieldString, Default: def})
}

// Int declares an int field with a default.
func (s *StructSchema) Int(name string, def int) *StructSchema {
	return s.add(Field{Name: name, Kind: FieldInt, Default: def})
}

// Int64 declares an int64 field with a default.
func (s *StructSchema) Int64(name string, def int64) *StructSchema {
	return s.add(Field{Name: name, Kind: FieldInt64, Default: def})
}

// Float64 declares a float64 field with a default.
func (s *StructSchema) Float64(name string, def float64) *StructSchema {
	return s.add(Field{Name: name, Kind: FieldFloat64, Default: def})
}

// Bool declares a bool field with a default.
func (s *StructSchema) Bool(name string, def bool) *StructSchema {
	return s.add(Field{Name: name, Kind: FieldBool, Default: def})
}

// Duration declares a time.Duration field with a default.
func (s *StructSchema) Duration(name string, def time.Duration) *StructSchema {
	return s.add(Field{Name: name, Kind: FieldDuration, Default: def})
}

// StringSlice declares a []string field with a default.
func (s *StructSchema) StringSlice(name string, def []string) *StructSchema {
	cp := make([]string, len(def))
	copy(cp, def)
	return s.add(Field{Name: name, Kind: FieldStringSlice, Default: cp})
}

// FieldWithFactory declares a field whose default is produced by a
// factory at initialization time instead of a shared default value.
func (s *StructSchema) FieldWithFactory(name string, kind FieldKind, factory func() interface{}) *StructSchema {
	return s.add(Field{Name: name, Kind: kind, Factory: factory})
}

// Name returns the schema's declared name.
func (s *StructSchema) Name() string { return s.name }

// Fields returns the declared fields in declaration order.
func (s *StructSchema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a declared field by name.
func (s *StructSchema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// HasField reports whether the schema declares the named field.
func (s *StructSchema) HasField(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *StructSchema) Kind() SchemaKind { return SchemaStruct }

func (s *StructSchema) DefaultValue() interface{} {
	sv := &StructValue{
		schema: s,
		values: make(map[string]interface{}, len(s.fields)),
	}
	for _, f := range s.fields {
		if f.Factory != nil {
			sv.values[f.Name] = deepCopyValue(f.Factory())
			continue
		}
		sv.values[f.Name] = deepCopyValue(f.Default)
	}
	return sv
}

// StructValue is an instance of a struct schema: the field table plus
// current values, every access coerced against the declared field kinds.
type StructValue struct {
	schema *StructSchema
	values map[string]interface{}
}

// Schema returns the declaring schema.
func (v *StructValue) Schema() *StructSchema { return v.schema }

// Get returns the named field's value.
func (v *StructValue) Get(name string) (interface{}, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Set coerces and stores a value for a declared field. Setting an
// undeclared field is a type validation error.
func (v *StructValue) Set(name string, value interface{}) error {
	f, ok := v.schema.Field(name)
	if !ok {
		return errors.New(ErrCodeTypeValidation, "no such field in typed configuration").
			WithContext("config", v.schema.name).
			WithContext("field", name)
	}
	coerced, err := coerceField(f, value)
	if err != nil {
		return err
	}
	v.values[name] = coerced
	return nil
}

// GetString returns the named field as a string.
func (v *StructValue) GetString(name string) string {
	if val, ok := v.values[name]; ok {
		if s, ok := val.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", val)
	}
	return ""
}

// GetInt returns the named field as an int.
func (v *StructValue) GetInt(name string) int {
	if val, ok := v.values[name]; ok {
		if i, err := coerceInt(val); err == nil {
			return i
		}
	}
	return 0
}

// GetInt64 returns the named field as an int64.
func (v *StructValue) GetInt64(name string) int64 {
	if val, ok := v.values[name]; ok {
		if i, err := coerceInt64(val); err == nil {
			return i
		}
	}
	return 0
}

// GetFloat64 returns the named field as a float64.
func (v *StructValue) GetFloat64(name string) float64 {
	if val, ok := v.values[name]; ok {
		if f, err := coerceFloat64(val); err == nil {
			return f
		}
	}
	return 0
}

// GetBool returns the named field as a bool.
func (v *StructValue) GetBool(name string) bool {
	if val, ok := v.values[name]; ok {
		if b, err := coerceBool(val); err == nil {
			return b
		}
	}
	return false
}

// GetDuration returns the named field as a time.Duration.
func (v *StructValue) GetDuration(name string) time.Duration {
	if val, ok := v.values[name]; ok {
		if d, err := coerceDuration(val); err == nil {
			return d
		}
	}
	return 0
}

// GetStringSlice returns the named field as a []string.
func (v *StructValue) GetStringSlice(name string) []string {
	if val, ok := v.values[name]; ok {
		if ss, err := coerceStringSlice(val); err == nil {
			return ss
		}
	}
	return nil
}

// AsMap renders the value as a plain mapping, for serialization.
// Durations render as their string form so files stay readable.
func (v *StructValue) AsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(v.schema.fields))
	for _, f := range v.schema.fields {
		val := v.values[f.Name]
		if d, ok := val.(time.Duration); ok {
			out[f.Name] = d.String()
			continue
		}
		out[f.Name] = deepCopyValue(val)
	}
	return out
}

// Clone returns an independent copy sharing only the schema.
func (v *StructValue) Clone() *StructValue {
	cp := &StructValue{
		schema: v.schema,
		values: make(map[string]interface{}, len(v.values)),
	}
	for k, val := range v.values {
		cp.values[k] = deepCopyValue(val)
	}
	return cp
}

// populateFromMap coerces a plain mapping into the struct value.
// Unknown keys fail: file contents must match the declared schema.
func (v *StructValue) populateFromMap(m map[string]interface{}) error {
	for key, raw := range m {
		if !v.schema.HasField(key) {
			return errors.New(ErrCodeTypeValidation, "undeclared field in typed configuration data").
				WithContext("config", v.schema.name).
				WithContext("field", key)
		}
		if err := v.Set(key, raw); err != nil {
			return err
		}
	}
	return nil
}

// coerceField converts a raw value to a field's declared kind.
func coerceField(f Field, value interface{}) (interface{}, error) {
	var (
		out interface{}
		err error
	)
	switch f.Kind {
	case FieldString:
		if s, ok := value.(string); ok {
			out = s
		} else {
			out = fmt.Sprintf("%v", value)
		}
	case FieldInt:
		out, err = coerceInt(value)
	case FieldInt64:
		out, err = coerceInt64(value)
	case FieldFloat64:
		out, err = coerceFloat64(value)
	case FieldBool:
		out, err = coerceBool(value)
	case FieldDuration:
		out, err = coerceDuration(value)
	case FieldStringSlice:
		out, err = coerceStringSlice(value)
	default:
		err = errors.New(ErrCodeTypeValidation, "unsupported field kind").
			WithContext("field", f.Name)
	}
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeTypeValidation, "cannot coerce value to declared field type").
			WithContext("field", f.Name).
			WithContext("kind", f.Kind.String())
	}
	return out, nil
}

// Coercion helpers. These mirror the conversion rules used for typed
// flag and file access throughout the package: native types pass
// through, numeric widths convert losslessly, strings parse.

func coerceInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
		return 0, fmt.Errorf("float %v is not an integer", v)
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	case bool:
		return 0, fmt.Errorf("cannot convert bool to int")
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

func coerceInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v == float64(int64(v)) {
			return int64(v), nil
		}
		return 0, fmt.Errorf("float %v is not an integer", v)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", value)
	}
}

func coerceFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

func coerceBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case int:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

func coerceDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case string:
		return time.ParseDuration(strings.TrimSpace(v))
	case int:
		return time.Duration(v), nil
	case int64:
		return time.Duration(v), nil
	case float64:
		return time.Duration(v), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to duration", value)
	}
}

func coerceStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		cp := make([]string, len(v))
		copy(cp, v)
		return cp, nil
	case []interface{}:
		out := make([]string, len(v))
		for i, item := range v {
			if s, ok := item.(string); ok {
				out[i] = s
			} else {
				out[i] = fmt.Sprintf("%v", item)
			}
		}
		return out, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}, nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, len(parts))
		for i, p := range parts {
			out[i] = strings.TrimSpace(p)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to string slice", value)
	}
}

// deepCopyValue copies nested maps and slices so configuration variants
// never alias each other. Scalars and struct values copy by their own
// rules; unknown types pass through as-is.
func deepCopyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = deepCopyValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case *StructValue:
		return v.Clone()
	default:
		return value
	}
}
