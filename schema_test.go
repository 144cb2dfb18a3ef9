// schema_test.go: Schema declaration and typed value tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"testing"
	"time"
)

func TestListSchemaDefaults(t *testing.T) {
	schema := List("a", "b")

	if schema.Kind() != SchemaList {
		t.Fatalf("expected list kind, got %v", schema.Kind())
	}

	first := schema.DefaultValue().([]interface{})
	second := schema.DefaultValue().([]interface{})

	if len(first) != 2 || first[0] != "a" || first[1] != "b" {
		t.Errorf("unexpected defaults: %v", first)
	}

	first[0] = "mutated"
	if second[0] != "a" {
		t.Error("default values alias each other")
	}
}

func TestMapSchemaDefaults(t *testing.T) {
	schema := Map(map[string]interface{}{
		"nested": map[string]interface{}{"key": 1},
	})

	first := schema.DefaultValue().(map[string]interface{})
	second := schema.DefaultValue().(map[string]interface{})

	first["nested"].(map[string]interface{})["key"] = 99
	if second["nested"].(map[string]interface{})["key"] != 1 {
		t.Error("nested default values alias each other")
	}

	t.Run("nil_defaults", func(t *testing.T) {
		empty := Map(nil).DefaultValue().(map[string]interface{})
		if len(empty) != 0 {
			t.Errorf("expected empty map, got %v", empty)
		}
	})
}

func TestStructSchemaBuilder(t *testing.T) {
	schema := NewStruct("server").
		String("host", "localhost").
		Int("port", 8080).
		Bool("tls", false).
		Duration("timeout", 30*time.Second).
		StringSlice("origins", []string{"a", "b"})

	if schema.Name() != "server" {
		t.Errorf("expected name server, got %q", schema.Name())
	}
	if !schema.HasField("host") || schema.HasField("nope") {
		t.Error("field lookup broken")
	}

	fields := schema.Fields()
	want := []string{"host", "port", "tls", "timeout", "origins"}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(fields))
	}
	for i, name := range want {
		if fields[i].Name != name {
			t.Errorf("field %d: expected %q, got %q", i, name, fields[i].Name)
		}
	}

	t.Run("redeclared_field_keeps_position", func(t *testing.T) {
		schema.Int("port", 9090)
		fields := schema.Fields()
		if fields[1].Name != "port" {
			t.Errorf("redeclared field moved: %v", fields)
		}
		if fields[1].Default != 9090 {
			t.Errorf("redeclared field kept old default: %v", fields[1].Default)
		}
	})
}

func TestStructValueDefaults(t *testing.T) {
	calls := 0
	schema := NewStruct("job").
		Int("retries", 3).
		FieldWithFactory("id", FieldString, func() interface{} {
			calls++
			return "generated"
		})

	sv := schema.DefaultValue().(*StructValue)
	if sv.GetInt("retries") != 3 {
		t.Errorf("expected retries 3, got %d", sv.GetInt("retries"))
	}
	if sv.GetString("id") != "generated" {
		t.Errorf("expected factory value, got %q", sv.GetString("id"))
	}
	if calls != 1 {
		t.Errorf("expected one factory call, got %d", calls)
	}

	// A second default value calls the factory again.
	schema.DefaultValue()
	if calls != 2 {
		t.Errorf("expected two factory calls, got %d", calls)
	}
}

func TestStructValueSet(t *testing.T) {
	schema := NewStruct("db").
		String("host", "localhost").
		Int("port", 5432).
		Duration("timeout", time.Second)

	sv := schema.DefaultValue().(*StructValue)

	t.Run("coerces_strings", func(t *testing.T) {
		if err := sv.Set("port", "6543"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sv.GetInt("port") != 6543 {
			t.Errorf("expected 6543, got %d", sv.GetInt("port"))
		}
		if err := sv.Set("timeout", "5s"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sv.GetDuration("timeout") != 5*time.Second {
			t.Errorf("expected 5s, got %v", sv.GetDuration("timeout"))
		}
	})

	t.Run("undeclared_field", func(t *testing.T) {
		err := sv.Set("nope", 1)
		if !hasErrorCode(err, ErrCodeTypeValidation) {
			t.Errorf("expected type validation code, got %v", err)
		}
	})

	t.Run("uncoercible_value", func(t *testing.T) {
		err := sv.Set("port", "not-a-number")
		if !hasErrorCode(err, ErrCodeTypeValidation) {
			t.Errorf("expected type validation code, got %v", err)
		}
	})
}

func TestStructValuePopulateFromMap(t *testing.T) {
	schema := NewStruct("app").
		String("name", "").
		Int("workers", 1)

	t.Run("known_keys", func(t *testing.T) {
		sv := schema.DefaultValue().(*StructValue)
		err := sv.populateFromMap(map[string]interface{}{
			"name":    "demo",
			"workers": 4,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sv.GetString("name") != "demo" || sv.GetInt("workers") != 4 {
			t.Errorf("values not populated: %v", sv.AsMap())
		}
	})

	t.Run("unknown_key", func(t *testing.T) {
		sv := schema.DefaultValue().(*StructValue)
		err := sv.populateFromMap(map[string]interface{}{"extra": 1})
		if !hasErrorCode(err, ErrCodeTypeValidation) {
			t.Errorf("expected type validation code, got %v", err)
		}
	})
}

func TestStructValueAsMap(t *testing.T) {
	schema := NewStruct("svc").
		Duration("timeout", 90*time.Second).
		Int("port", 80)

	m := schema.DefaultValue().(*StructValue).AsMap()
	if m["timeout"] != "1m30s" {
		t.Errorf("expected duration string, got %v (%T)", m["timeout"], m["timeout"])
	}
	if m["port"] != 80 {
		t.Errorf("expected port 80, got %v", m["port"])
	}
}

func TestStructValueClone(t *testing.T) {
	schema := NewStruct("svc").StringSlice("tags", []string{"x"})
	sv := schema.DefaultValue().(*StructValue)
	cp := sv.Clone()

	if err := cp.Set("tags", []string{"y", "z"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sv.GetStringSlice("tags"); len(got) != 1 || got[0] != "x" {
		t.Errorf("clone aliased the original: %v", got)
	}
}

func TestCoercionRules(t *testing.T) {
	tests := []struct {
		name    string
		kind    FieldKind
		input   interface{}
		want    interface{}
		wantErr bool
	}{
		{"int_from_string", FieldInt, "42", 42, false},
		{"int_from_float_whole", FieldInt, 42.0, 42, false},
		{"int_from_float_fractional", FieldInt, 42.5, nil, true},
		{"int_from_bool", FieldInt, true, nil, true},
		{"int64_from_int", FieldInt64, 7, int64(7), false},
		{"float_from_int", FieldFloat64, 3, 3.0, false},
		{"float_from_string", FieldFloat64, "2.5", 2.5, false},
		{"bool_from_string", FieldBool, "true", true, false},
		{"bool_from_garbage", FieldBool, "maybe", nil, true},
		{"duration_from_string", FieldDuration, "1h", time.Hour, false},
		{"duration_from_garbage", FieldDuration, "soon", nil, true},
		{"string_from_int", FieldString, 5, "5", false},
		{"slice_from_csv", FieldStringSlice, "a, b", []string{"a", "b"}, false},
		{"slice_from_interfaces", FieldStringSlice, []interface{}{"a", 1}, []string{"a", "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceField(Field{Name: "f", Kind: tt.kind}, tt.input)
			if tt.wantErr {
				if !hasErrorCode(err, ErrCodeTypeValidation) {
					t.Fatalf("expected type validation code, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch want := tt.want.(type) {
			case []string:
				gotSlice := got.([]string)
				if len(gotSlice) != len(want) {
					t.Fatalf("expected %v, got %v", want, gotSlice)
				}
				for i := range want {
					if gotSlice[i] != want[i] {
						t.Errorf("expected %v, got %v", want, gotSlice)
					}
				}
			default:
				if got != tt.want {
					t.Errorf("expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
				}
			}
		})
	}
}
